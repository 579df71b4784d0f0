package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 1_000_000

// addQuantity sums two line quantities, saturating at MaxQuantity.
func addQuantity(cur, qty int) int {
	if qty > MaxQuantity-cur {
		return MaxQuantity
	}
	return cur + qty
}

func capQuantity(qty int) int {
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// CartItem represents an item in the cart
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart. No two items share a product and
// every quantity is at least 1.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Add increments the product's quantity or appends a new line. Quantities
// saturate at MaxQuantity.
func (c *Cart) Add(productID primitive.ObjectID, qty int) {
	if qty < 1 {
		return
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity = addQuantity(c.Items[i].Quantity, qty)
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: capQuantity(qty)})
}

// SetQuantity overwrites the quantity; anything below 1 removes the line.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID primitive.ObjectID, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty < 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = capQuantity(qty)
	return true
}

// Remove drops the product's line. Missing products are ignored.
func (c *Cart) Remove(productID primitive.ObjectID) {
	if i := c.index(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Merge folds items into the cart with Add semantics. It is not idempotent:
// merging the same items twice doubles their quantities.
func (c *Cart) Merge(items []CartItem) {
	for _, it := range items {
		c.Add(it.ProductID, it.Quantity)
	}
}

func (c *Cart) Quantity(productID primitive.ObjectID) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) index(productID primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// ProductSnapshot is a denormalized copy of a product held by a guest cart.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Category string  `json:"category,omitempty"`
}

// GuestCartItem is one line of a guest cart.
type GuestCartItem struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// GuestCart belongs to an anonymous visitor identified only by an opaque handle.
type GuestCart struct {
	Handle string          `json:"handle"`
	Items  []GuestCartItem `json:"items"`
}

func (g *GuestCart) Add(p ProductSnapshot, qty int) {
	if qty < 1 {
		return
	}
	if i := g.index(p.ID); i >= 0 {
		g.Items[i].Quantity = addQuantity(g.Items[i].Quantity, qty)
		return
	}
	g.Items = append(g.Items, GuestCartItem{Product: p, Quantity: capQuantity(qty)})
}

func (g *GuestCart) SetQuantity(productID string, qty int) bool {
	i := g.index(productID)
	if i < 0 {
		return false
	}
	if qty < 1 {
		g.Items = append(g.Items[:i], g.Items[i+1:]...)
		return true
	}
	g.Items[i].Quantity = capQuantity(qty)
	return true
}

func (g *GuestCart) Remove(productID string) {
	if i := g.index(productID); i >= 0 {
		g.Items = append(g.Items[:i], g.Items[i+1:]...)
	}
}

func (g *GuestCart) Quantity(productID string) int {
	if i := g.index(productID); i >= 0 {
		return g.Items[i].Quantity
	}
	return 0
}

func (g *GuestCart) index(productID string) int {
	for i, it := range g.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// CartOwner identifies whose cart an operation targets: either a guest handle
// or an authenticated user id, never both.
type CartOwner struct {
	guest  string
	userID primitive.ObjectID
}

func GuestOwner(handle string) CartOwner {
	return CartOwner{guest: handle}
}

func UserOwner(id primitive.ObjectID) CartOwner {
	return CartOwner{userID: id}
}

func (o CartOwner) IsGuest() bool {
	return o.userID.IsZero()
}

func (o CartOwner) GuestHandle() string {
	return o.guest
}

func (o CartOwner) UserID() primitive.ObjectID {
	return o.userID
}

// CartLine is one line of a populated cart view.
type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal float64         `json:"subtotal"`
}

// CartView is what cart reads return, rebuilt on every read.
type CartView struct {
	Guest bool       `json:"guest"`
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
	Count int        `json:"count"`
}

func (v *CartView) append(p ProductSnapshot, qty int) {
	sub := p.Price * float64(qty)
	v.Items = append(v.Items, CartLine{Product: p, Quantity: qty, Subtotal: sub})
	v.Total += sub
	v.Count += qty
}

// PopulateCart joins the cart against the given products, dropping lines
// whose product no longer exists.
func PopulateCart(c *Cart, products map[primitive.ObjectID]Product) CartView {
	view := CartView{Items: []CartLine{}}
	if c == nil {
		return view
	}
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		view.append(p.Snapshot(), it.Quantity)
	}
	return view
}

// GuestView renders a guest cart from its snapshots.
func GuestView(g *GuestCart) CartView {
	view := CartView{Guest: true, Items: []CartLine{}}
	if g == nil {
		return view
	}
	for _, it := range g.Items {
		view.append(it.Product, it.Quantity)
	}
	return view
}
