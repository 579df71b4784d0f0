// Package store persists users, products and carts in MongoDB and guest
// carts in Redis.
package store

import (
	"context"
	"errors"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	cartsCollection    = "carts"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) (*models.User, error)
	LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error)
	SetOTP(ctx context.Context, id primitive.ObjectID, hash string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id primitive.ObjectID) error
	// ResetPassword stores the new hash and clears any pending OTP in one write.
	ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductFilter struct {
	Category string
	Query    string
}

type ProductStore interface {
	List(ctx context.Context, f ProductFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, in models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// SaveReviews writes the review list and its rating together.
	SaveReviews(ctx context.Context, p *models.Product) error
}

type CartStore interface {
	// FindByUser returns ErrNotFound when the user has no cart yet.
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// Save upserts the user's cart.
	Save(ctx context.Context, c *models.Cart) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type GuestCartStore interface {
	// Get returns an empty cart for unknown handles.
	Get(ctx context.Context, handle string) (*models.GuestCart, error)
	Save(ctx context.Context, c *models.GuestCart) error
	Delete(ctx context.Context, handle string) error
}

// EnsureIndexes creates the unique indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(cartsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
