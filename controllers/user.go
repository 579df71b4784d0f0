package controllers

import (
	"context"
	"net/http"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"

	"go.uber.org/zap"
)

// UserController handles sign-in and profile requests
type UserController struct {
	auth    *services.AuthService
	carts   *services.CartService
	cookies CookieSettings
	logger  *zap.Logger
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, carts *services.CartService, cookies CookieSettings, logger *zap.Logger) *UserController {
	return &UserController{auth: auth, carts: carts, cookies: cookies, logger: logger}
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

type userResponse struct {
	User models.SessionUser `json:"user"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, uc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := uc.auth.Register(ctx, in)
	if err != nil {
		writeError(w, uc.logger, err)
		return
	}

	uc.cookies.setSession(w, session.Token)
	uc.mergeGuestCart(ctx, w, r, session)
	writeJSON(w, http.StatusCreated, session)
}

// Login handles password authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, uc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := uc.auth.Login(ctx, in)
	if err != nil {
		writeError(w, uc.logger, err)
		return
	}

	uc.cookies.setSession(w, session.Token)
	uc.mergeGuestCart(ctx, w, r, session)
	writeJSON(w, http.StatusOK, session)
}

// GoogleLogin signs in with a Google ID token
func (uc *UserController) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var in googleLoginRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, uc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := uc.auth.FederatedLogin(ctx, in.Credential)
	if err != nil {
		writeError(w, uc.logger, err)
		return
	}

	uc.cookies.setSession(w, session.Token)
	uc.mergeGuestCart(ctx, w, r, session)
	writeJSON(w, http.StatusOK, session)
}

// mergeGuestCart folds a visitor's guest cart into the freshly signed-in
// user's cart. A failed merge never fails the sign-in.
func (uc *UserController) mergeGuestCart(ctx context.Context, w http.ResponseWriter, r *http.Request, session *services.Session) {
	handle := guestHandle(r)
	if handle == "" || uc.carts == nil {
		return
	}
	uc.cookies.clearGuest(w)

	userID, err := session.User.ObjectID()
	if err != nil {
		return
	}
	if _, err := uc.carts.MergeGuest(ctx, models.GuestOwner(handle), models.UserOwner(userID)); err != nil {
		uc.logger.Warn("merge guest cart on sign-in failed", zap.String("user_id", session.User.ID), zap.Error(err))
	}
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	uc.cookies.clearSession(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me returns the identity carried by the session
func (uc *UserController) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, uc.logger, services.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateProfile edits the caller's contact details and reissues the session
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, uc.logger, services.ErrUnauthorized)
		return
	}
	userID, err := user.ObjectID()
	if err != nil {
		writeError(w, uc.logger, services.ErrUnauthorized)
		return
	}

	var in services.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, uc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := uc.auth.UpdateProfile(ctx, userID, in)
	if err != nil {
		writeError(w, uc.logger, err)
		return
	}

	uc.cookies.setSession(w, session.Token)
	writeJSON(w, http.StatusOK, session)
}
