// routes/routes.go
package routes

import (
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers the router dispatches to
type Controllers struct {
	Health   *controllers.HealthController
	User     *controllers.UserController
	Password *controllers.PasswordController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Admin    *controllers.AdminController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, sessions *utils.SessionIssuer) {
	requireSession := middleware.Auth(sessions)

	router.HandleFunc("/health", c.Health.Health).Methods(http.MethodGet)

	// Public auth routes
	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", c.User.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", c.User.Login).Methods(http.MethodPost)
	auth.HandleFunc("/google", c.User.GoogleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/logout", c.User.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", c.Password.ForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/verify-otp", c.Password.VerifyOTP).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", c.Password.ResetPassword).Methods(http.MethodPost)

	// Protected auth routes
	account := router.PathPrefix("/auth").Subrouter()
	account.Use(requireSession)
	account.HandleFunc("/me", c.User.Me).Methods(http.MethodGet)
	account.HandleFunc("/profile", c.User.UpdateProfile).Methods(http.MethodPut)

	// Product routes
	router.HandleFunc("/products", c.Product.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}", c.Product.GetProductByID).Methods(http.MethodGet)

	reviews := router.PathPrefix("/products/{id}/reviews").Subrouter()
	reviews.Use(requireSession)
	reviews.HandleFunc("", c.Product.UpsertReview).Methods(http.MethodPost)
	reviews.HandleFunc("", c.Product.RemoveReview).Methods(http.MethodDelete)

	catalog := router.PathPrefix("/products").Subrouter()
	catalog.Use(requireSession, middleware.AdminOnly)
	catalog.HandleFunc("", c.Product.CreateProduct).Methods(http.MethodPost)
	catalog.HandleFunc("/{id}", c.Product.UpdateProduct).Methods(http.MethodPut)
	catalog.HandleFunc("/{id}", c.Product.DeleteProduct).Methods(http.MethodDelete)

	// Cart routes
	cart := router.PathPrefix("/cart").Subrouter()
	cart.Use(requireSession)
	registerCartRoutes(cart, c.Cart)
	cart.HandleFunc("/merge", c.Cart.MergeCart).Methods(http.MethodPost)

	guest := router.PathPrefix("/guest/cart").Subrouter()
	registerCartRoutes(guest, c.Cart)

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(requireSession, middleware.AdminOnly)
	admin.HandleFunc("/users", c.Admin.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", c.Admin.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{id}/role", c.Admin.ChangeRole).Methods(http.MethodPut)
}

func registerCartRoutes(r *mux.Router, cc *controllers.CartController) {
	r.HandleFunc("", cc.GetCart).Methods(http.MethodGet)
	r.HandleFunc("", cc.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/items/{productId}", cc.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/items/{productId}", cc.SetQuantity).Methods(http.MethodPut)
	r.HandleFunc("/items/{productId}", cc.RemoveItem).Methods(http.MethodDelete)
}
