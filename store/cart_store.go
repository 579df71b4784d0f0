package store

import (
	"context"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartStore struct {
	col *mongo.Collection
}

func NewMongoCartStore(db *mongo.Database) *MongoCartStore {
	return &MongoCartStore{col: db.Collection(cartsCollection)}
}

func (s *MongoCartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	if err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *MongoCartStore) Save(ctx context.Context, c *models.Cart) error {
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	c.UpdatedAt = time.Now().UTC()
	_, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": c.UserID},
		bson.M{"$set": bson.M{"items": c.Items, "updated_at": c.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoCartStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
