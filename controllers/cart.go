package controllers

import (
	"net/http"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CartController handles cart requests for signed-in users and for guests.
// The same handlers serve both: a request that passed the Auth middleware
// acts on the user's cart, any other acts on the guest cart from the cookie.
type CartController struct {
	carts   *services.CartService
	cookies CookieSettings
	logger  *zap.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, cookies CookieSettings, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, cookies: cookies, logger: logger}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type mergeRequest struct {
	Items []services.MergeItem `json:"items"`
}

func (cc *CartController) owner(w http.ResponseWriter, r *http.Request) (models.CartOwner, error) {
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		id, err := user.ObjectID()
		if err != nil {
			return models.CartOwner{}, services.ErrUnauthorized
		}
		return models.UserOwner(id), nil
	}
	return models.GuestOwner(cc.cookies.ensureGuestHandle(w, r)), nil
}

// GetCart returns the populated cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := cc.owner(w, r)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	view, err := cc.carts.Get(ctx, owner)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddItem adds a product to the cart. The body may carry a quantity; it defaults to one.
func (cc *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, err := cc.owner(w, r)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	id, err := services.ParseID("product", mux.Vars(r)["productId"])
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	var in quantityRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, cc.logger, err)
			return
		}
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	view, err := cc.carts.Add(ctx, owner, id, in.Quantity)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetQuantity overwrites a line's quantity; zero or less removes the line
func (cc *CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	owner, err := cc.owner(w, r)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	id, err := services.ParseID("product", mux.Vars(r)["productId"])
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	var in quantityRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, cc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	view, err := cc.carts.SetQuantity(ctx, owner, id, in.Quantity)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem removes a product from the cart
func (cc *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, err := cc.owner(w, r)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	id, err := services.ParseID("product", mux.Vars(r)["productId"])
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	view, err := cc.carts.Remove(ctx, owner, id)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, err := cc.owner(w, r)
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := cc.carts.Clear(ctx, owner); err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared"})
}

// MergeCart folds guest items into the signed-in user's cart. Items in the
// body win and the cookie cart is discarded; without them the guest cart from
// the cookie is merged and discarded.
func (cc *CartController) MergeCart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, cc.logger, services.ErrUnauthorized)
		return
	}
	userID, err := user.ObjectID()
	if err != nil {
		writeError(w, cc.logger, services.ErrUnauthorized)
		return
	}
	var in mergeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, cc.logger, err)
			return
		}
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	owner := models.UserOwner(userID)

	handle := guestHandle(r)
	var view models.CartView
	if len(in.Items) == 0 && handle != "" {
		cc.cookies.clearGuest(w)
		view, err = cc.carts.MergeGuest(ctx, models.GuestOwner(handle), owner)
	} else {
		view, err = cc.carts.Merge(ctx, owner, in.Items)
		if err == nil && handle != "" {
			// the body replaces the cookie cart, which must not be merged later
			cc.cookies.clearGuest(w)
			if err := cc.carts.Clear(ctx, models.GuestOwner(handle)); err != nil {
				cc.logger.Warn("discard guest cart failed", zap.String("handle", handle), zap.Error(err))
			}
		}
	}
	if err != nil {
		writeError(w, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
