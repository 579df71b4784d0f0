package controllers

import (
	"net/http"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProductController handles catalog and review requests
type ProductController struct {
	products *services.ProductService
	reviews  *services.ReviewService
	logger   *zap.Logger
}

// NewProductController creates a new ProductController
func NewProductController(products *services.ProductService, reviews *services.ReviewService, logger *zap.Logger) *ProductController {
	return &ProductController{products: products, reviews: reviews, logger: logger}
}

type reviewResponse struct {
	Status  models.ReviewResult `json:"status"`
	Product *models.Product     `json:"product"`
}

func productID(r *http.Request) (string, bool) {
	id, ok := mux.Vars(r)["id"]
	return id, ok
}

// GetProducts lists products, optionally filtered by ?category= and ?q=
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	q := r.URL.Query()
	products, err := pc.products.List(ctx, store.ProductFilter{Category: q.Get("category"), Query: q.Get("q")})
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	hex, _ := productID(r)
	id, err := services.ParseID("product", hex)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	product, err := pc.products.Get(ctx, id)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	product, err := pc.products.Create(ctx, in)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles editing a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	hex, _ := productID(r)
	id, err := services.ParseID("product", hex)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	var in models.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	product, err := pc.products.Update(ctx, id, in)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	hex, _ := productID(r)
	id, err := services.ParseID("product", hex)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := pc.products.Delete(ctx, id); err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted"})
}

// UpsertReview creates or replaces the caller's review
func (pc *ProductController) UpsertReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, pc.logger, services.ErrUnauthorized)
		return
	}
	hex, _ := productID(r)
	id, err := services.ParseID("product", hex)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	product, result, err := pc.reviews.Upsert(ctx, id, user, in)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}

	status := http.StatusOK
	if result == models.ReviewCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, reviewResponse{Status: result, Product: product})
}

// RemoveReview deletes the caller's review
func (pc *ProductController) RemoveReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, pc.logger, services.ErrUnauthorized)
		return
	}
	userID, err := user.ObjectID()
	if err != nil {
		writeError(w, pc.logger, services.ErrUnauthorized)
		return
	}
	hex, _ := productID(r)
	id, err := services.ParseID("product", hex)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	product, err := pc.reviews.Remove(ctx, id, userID)
	if err != nil {
		writeError(w, pc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
