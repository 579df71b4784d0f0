package services

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errQuantityTooLarge = invalid(fmt.Sprintf("quantity must not exceed %d", models.MaxQuantity))

// MergeItem is one guest line presented for merging into a user's cart.
type MergeItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartService reconciles the two kinds of cart. Every operation takes a
// CartOwner and dispatches to the guest or the user path; the paths share no
// state. Reads are rebuilt from storage each time.
type CartService struct {
	carts    store.CartStore
	guests   store.GuestCartStore
	products store.ProductStore
	events   events.Publisher
	logger   *zap.Logger
}

func NewCartService(carts store.CartStore, guests store.GuestCartStore, products store.ProductStore, pub events.Publisher, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, guests: guests, products: products, events: pub, logger: logger}
}

// Get returns the populated cart. Lines for deleted products are left out of
// the view but stay in storage.
func (s *CartService) Get(ctx context.Context, owner models.CartOwner) (models.CartView, error) {
	if owner.IsGuest() {
		g, err := s.guests.Get(ctx, owner.GuestHandle())
		if err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		return models.GuestView(g), nil
	}

	cart, err := s.userCart(ctx, owner.UserID())
	if err != nil {
		return models.CartView{}, err
	}
	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, it := range cart.Items {
		ids[i] = it.ProductID
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return models.CartView{}, storeErr("products", err)
	}
	return models.PopulateCart(cart, products), nil
}

// Add increases the product's quantity by qty, appending it if absent.
// A zero qty means one.
func (s *CartService) Add(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID, qty int) (models.CartView, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return models.CartView{}, invalid("quantity must be at least 1")
	}
	if qty > models.MaxQuantity {
		return models.CartView{}, errQuantityTooLarge
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return models.CartView{}, storeErr("product", err)
	}

	if owner.IsGuest() {
		g, err := s.guests.Get(ctx, owner.GuestHandle())
		if err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		if g.Quantity(productID.Hex())+qty > models.MaxQuantity {
			return models.CartView{}, errQuantityTooLarge
		}
		g.Add(p.Snapshot(), qty)
		if err := s.guests.Save(ctx, g); err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		return models.GuestView(g), nil
	}

	cart, err := s.userCart(ctx, owner.UserID())
	if err != nil {
		return models.CartView{}, err
	}
	if cart.Quantity(p.ID)+qty > models.MaxQuantity {
		return models.CartView{}, errQuantityTooLarge
	}
	cart.Add(p.ID, qty)
	if err := s.carts.Save(ctx, cart); err != nil {
		return models.CartView{}, storeErr("cart", err)
	}
	return s.Get(ctx, owner)
}

// SetQuantity overwrites a line's quantity; qty below 1 removes the line.
func (s *CartService) SetQuantity(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID, qty int) (models.CartView, error) {
	if qty > models.MaxQuantity {
		return models.CartView{}, errQuantityTooLarge
	}
	if owner.IsGuest() {
		g, err := s.guests.Get(ctx, owner.GuestHandle())
		if err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		if !g.SetQuantity(productID.Hex(), qty) {
			return s.missingLine(ctx, owner, qty)
		}
		if err := s.guests.Save(ctx, g); err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		return models.GuestView(g), nil
	}

	cart, err := s.userCart(ctx, owner.UserID())
	if err != nil {
		return models.CartView{}, err
	}
	if !cart.SetQuantity(productID, qty) {
		return s.missingLine(ctx, owner, qty)
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return models.CartView{}, storeErr("cart", err)
	}
	return s.Get(ctx, owner)
}

// missingLine treats removing an absent line as done and raising it as not found.
func (s *CartService) missingLine(ctx context.Context, owner models.CartOwner, qty int) (models.CartView, error) {
	if qty < 1 {
		return s.Get(ctx, owner)
	}
	return models.CartView{}, storeErr("cart item", store.ErrNotFound)
}

// Remove deletes a line. Removing an absent product is not an error.
func (s *CartService) Remove(ctx context.Context, owner models.CartOwner, productID primitive.ObjectID) (models.CartView, error) {
	if owner.IsGuest() {
		g, err := s.guests.Get(ctx, owner.GuestHandle())
		if err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		g.Remove(productID.Hex())
		if err := s.guests.Save(ctx, g); err != nil {
			return models.CartView{}, fmt.Errorf("guest cart: %w", err)
		}
		return models.GuestView(g), nil
	}

	cart, err := s.userCart(ctx, owner.UserID())
	if err != nil {
		return models.CartView{}, err
	}
	cart.Remove(productID)
	if err := s.carts.Save(ctx, cart); err != nil {
		return models.CartView{}, storeErr("cart", err)
	}
	return s.Get(ctx, owner)
}

// Clear deletes the whole cart record.
func (s *CartService) Clear(ctx context.Context, owner models.CartOwner) error {
	if owner.IsGuest() {
		if err := s.guests.Delete(ctx, owner.GuestHandle()); err != nil {
			return fmt.Errorf("guest cart: %w", err)
		}
		return nil
	}
	if err := s.carts.DeleteByUser(ctx, owner.UserID()); err != nil {
		return storeErr("cart", err)
	}
	return nil
}

// Merge adds each item's quantity to the user's cart, appending products the
// cart does not have. Items with a bad id, a quantity below 1 or a deleted
// product are skipped. Merged totals saturate at models.MaxQuantity. Merge is
// not idempotent; callers must discard the guest items once it succeeds.
func (s *CartService) Merge(ctx context.Context, owner models.CartOwner, items []MergeItem) (models.CartView, error) {
	if owner.IsGuest() {
		return models.CartView{}, fmt.Errorf("merge target must be a signed-in user: %w", ErrUnauthorized)
	}
	for _, it := range items {
		if it.Quantity > models.MaxQuantity {
			return models.CartView{}, errQuantityTooLarge
		}
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	lines := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		id, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil || it.Quantity < 1 {
			continue
		}
		ids = append(ids, id)
		lines = append(lines, models.CartItem{ProductID: id, Quantity: it.Quantity})
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return models.CartView{}, storeErr("products", err)
	}
	resolved := lines[:0]
	for _, l := range lines {
		if _, ok := products[l.ProductID]; ok {
			resolved = append(resolved, l)
		}
	}

	if len(resolved) > 0 {
		cart, err := s.userCart(ctx, owner.UserID())
		if err != nil {
			return models.CartView{}, err
		}
		cart.Merge(resolved)
		if err := s.carts.Save(ctx, cart); err != nil {
			return models.CartView{}, storeErr("cart", err)
		}
	}

	publish(ctx, s.events, s.logger, events.New(events.CartMerged, owner.UserID().Hex(), map[string]interface{}{
		"submitted": len(items),
		"merged":    len(resolved),
	}))
	return s.Get(ctx, owner)
}

// MergeGuest merges a guest cart into the user's cart and then discards the
// guest cart, whether or not the merge succeeded, so it can never be merged twice.
func (s *CartService) MergeGuest(ctx context.Context, guest, user models.CartOwner) (models.CartView, error) {
	if !guest.IsGuest() || guest.GuestHandle() == "" {
		return models.CartView{}, invalid("guest cart handle is required")
	}
	defer func() {
		if err := s.guests.Delete(ctx, guest.GuestHandle()); err != nil {
			s.logger.Warn("discard guest cart failed", zap.String("handle", guest.GuestHandle()), zap.Error(err))
		}
	}()

	g, err := s.guests.Get(ctx, guest.GuestHandle())
	if err != nil {
		return models.CartView{}, fmt.Errorf("guest cart: %w", err)
	}
	items := make([]MergeItem, len(g.Items))
	for i, it := range g.Items {
		items[i] = MergeItem{ProductID: it.Product.ID, Quantity: it.Quantity}
	}
	return s.Merge(ctx, user, items)
}

// DeleteUserCart removes a user's cart, used when the account is deleted.
func (s *CartService) DeleteUserCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.Clear(ctx, models.UserOwner(userID))
}

func (s *CartService) userCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, storeErr("cart", err)
	}
	return cart, nil
}
