package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// ReviewService keeps each product's rating in step with its reviews. Writes
// are last-writer-wins on the product document.
type ReviewService struct {
	products store.ProductStore
	events   events.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(products store.ProductStore, pub events.Publisher, logger *zap.Logger) *ReviewService {
	return &ReviewService{products: products, events: pub, logger: logger, now: time.Now}
}

// Upsert creates the user's review or overwrites it in place.
func (s *ReviewService) Upsert(ctx context.Context, productID primitive.ObjectID, author models.SessionUser, in ReviewInput) (*models.Product, models.ReviewResult, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateInput(in); err != nil {
		return nil, "", err
	}
	userID, err := author.ObjectID()
	if err != nil {
		return nil, "", ErrUnauthorized
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, "", storeErr("product", err)
	}

	result := p.UpsertReview(userID, author.Name, in.Rating, in.Comment, s.now().UTC())
	if err := s.products.SaveReviews(ctx, p); err != nil {
		return nil, "", storeErr("product", err)
	}

	publish(ctx, s.events, s.logger, events.New(events.ReviewUpserted, p.ID.Hex(), map[string]interface{}{
		"user_id": author.ID,
		"rating":  in.Rating,
		"result":  string(result),
		"rate":    p.Rating.Rate,
		"count":   p.Rating.Count,
	}))
	return p, result, nil
}

// Remove deletes the user's own review.
func (s *ReviewService) Remove(ctx context.Context, productID primitive.ObjectID, userID primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, storeErr("product", err)
	}
	if err := p.RemoveReview(userID); err != nil {
		if errors.Is(err, models.ErrReviewNotFound) {
			return nil, storeErr("review", store.ErrNotFound)
		}
		return nil, err
	}
	if err := s.products.SaveReviews(ctx, p); err != nil {
		return nil, storeErr("product", err)
	}

	publish(ctx, s.events, s.logger, events.New(events.ReviewRemoved, p.ID.Hex(), map[string]interface{}{
		"user_id": userID.Hex(),
		"rate":    p.Rating.Rate,
		"count":   p.Rating.Count,
	}))
	return p, nil
}
