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

type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(usersCollection)}
}

func (s *MongoUserStore) Create(ctx context.Context, u *models.User) error {
	if !u.CanAuthenticate() {
		return models.ErrNoCredential
	}
	u.Email = models.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoUserStore) List(ctx context.Context) ([]models.User, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) (*models.User, error) {
	return s.findAndSet(ctx, id, bson.M{
		"name":    p.Name,
		"phone":   p.Phone,
		"address": p.Address,
		"city":    p.City,
		"country": p.Country,
	})
}

func (s *MongoUserStore) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"google_id": googleID, "updated_at": time.Now().UTC()}})
}

func (s *MongoUserStore) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	return s.findAndSet(ctx, id, bson.M{"role": role})
}

func (s *MongoUserStore) SetOTP(ctx context.Context, id primitive.ObjectID, hash string, expiresAt time.Time) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"otp_hash":       hash,
		"otp_expires_at": expiresAt.UTC(),
		"updated_at":     time.Now().UTC(),
	}})
}

func (s *MongoUserStore) ClearOTP(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{
		"$unset": bson.M{"otp_hash": "", "otp_expires_at": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *MongoUserStore) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, id, bson.M{
		"$set":   bson.M{"password": hash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"otp_hash": "", "otp_expires_at": ""},
	})
}

func (s *MongoUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) findAndSet(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	fields["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&u)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
