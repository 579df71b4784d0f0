package controllers

import (
	"net/http"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminController handles user administration (Admin only)
type AdminController struct {
	admin   *services.AdminService
	cookies CookieSettings
	logger  *zap.Logger
}

func NewAdminController(admin *services.AdminService, cookies CookieSettings, logger *zap.Logger) *AdminController {
	return &AdminController{admin: admin, cookies: cookies, logger: logger}
}

type roleRequest struct {
	Role string `json:"role"`
}

type roleResponse struct {
	User *models.User `json:"user"`
}

// target resolves the acting admin and the user named in the path. It writes
// the error response itself and reports false on failure.
func (ac *AdminController) target(w http.ResponseWriter, r *http.Request) (models.SessionUser, primitive.ObjectID, bool) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, ac.logger, services.ErrUnauthorized)
		return actor, primitive.NilObjectID, false
	}
	id, err := services.ParseID("user", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, ac.logger, err)
		return actor, primitive.NilObjectID, false
	}
	return actor, id, true
}

// ListUsers returns every account
func (ac *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	users, err := ac.admin.ListUsers(ctx)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser removes an account and its cart
func (ac *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := ac.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := ac.admin.DeleteUser(ctx, actor, targetID); err != nil {
		writeError(w, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}

// ChangeRole sets an account's role. Changing your own role reissues your session.
func (ac *AdminController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := ac.target(w, r)
	if !ok {
		return
	}
	var in roleRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, ac.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	user, session, err := ac.admin.ChangeRole(ctx, actor, targetID, in.Role)
	if err != nil {
		writeError(w, ac.logger, err)
		return
	}
	if session != nil {
		ac.cookies.setSession(w, session.Token)
	}
	writeJSON(w, http.StatusOK, roleResponse{User: user})
}
