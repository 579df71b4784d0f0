// Package storetest provides in-memory implementations of the store
// interfaces for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ store.UserStore    = (*Users)(nil)
	_ store.ProductStore = (*Products)(nil)
	_ store.CartStore    = (*Carts)(nil)
)

// Users is an in-memory store.UserStore.
type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.User
}

func NewUsers() *Users {
	return &Users{byID: map[primitive.ObjectID]*models.User{}}
}

func (m *Users) copyOf(u *models.User) *models.User {
	c := *u
	if u.OTPExpiresAt != nil {
		t := *u.OTPExpiresAt
		c.OTPExpiresAt = &t
	}
	return &c
}

func (m *Users) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !u.CanAuthenticate() {
		return models.ErrNoCredential
	}
	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	m.byID[u.ID] = m.copyOf(u)
	return nil
}

func (m *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.copyOf(u), nil
}

func (m *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return m.copyOf(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Users) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *m.copyOf(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *Users) UpdateProfile(_ context.Context, id primitive.ObjectID, p models.Profile) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.ApplyProfile(p)
	return m.copyOf(u), nil
}

func (m *Users) LinkGoogle(_ context.Context, id primitive.ObjectID, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.GoogleID = googleID
	return nil
}

func (m *Users) SetRole(_ context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Role = role
	return m.copyOf(u), nil
}

func (m *Users) SetOTP(_ context.Context, id primitive.ObjectID, hash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.OTPHash = hash
	u.OTPExpiresAt = &expiresAt
	return nil
}

func (m *Users) ClearOTP(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.OTPHash = ""
	u.OTPExpiresAt = nil
	return nil
}

func (m *Users) ResetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	u.OTPHash = ""
	u.OTPExpiresAt = nil
	return nil
}

func (m *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// Products is an in-memory store.ProductStore.
type Products struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Product
}

func NewProducts() *Products {
	return &Products{byID: map[primitive.ObjectID]*models.Product{}}
}

func (m *Products) copyOf(p *models.Product) *models.Product {
	c := *p
	c.Reviews = append([]models.Review{}, p.Reviews...)
	c.Images = append([]string{}, p.Images...)
	return &c
}

// Add inserts a product directly and returns it.
func (m *Products) Add(name string, price float64) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{ID: primitive.NewObjectID(), Name: name, Price: price, Reviews: []models.Review{}}
	m.byID[p.ID] = m.copyOf(p)
	return p
}

func (m *Products) List(_ context.Context, f store.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.byID {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, *m.copyOf(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.copyOf(p), nil
}

func (m *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out[id] = *m.copyOf(p)
		}
	}
	return out, nil
}

func (m *Products) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.Rating = models.AggregateRating(p.Reviews)
	m.byID[p.ID] = m.copyOf(p)
	return nil
}

func (m *Products) Update(_ context.Context, id primitive.ObjectID, in models.ProductInput) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Images = in.Images
	p.Category = in.Category
	p.Price = in.Price
	return m.copyOf(p), nil
}

func (m *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *Products) SaveReviews(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	stored.Reviews = append([]models.Review{}, p.Reviews...)
	stored.Rating = p.Rating
	return nil
}

// Carts is an in-memory store.CartStore.
type Carts struct {
	mu     sync.Mutex
	byUser map[primitive.ObjectID]models.Cart
}

func NewCarts() *Carts {
	return &Carts{byUser: map[primitive.ObjectID]models.Cart{}}
}

func (m *Carts) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (m *Carts) Save(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *c
	saved.Items = append([]models.CartItem{}, c.Items...)
	m.byUser[c.UserID] = saved
	return nil
}

func (m *Carts) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
	return nil
}
