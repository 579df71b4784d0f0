package models

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrReviewNotFound is returned when a user has no review on a product.
var ErrReviewNotFound = errors.New("review not found")

// ReviewResult tells whether an upsert inserted or replaced a review.
type ReviewResult string

const (
	ReviewCreated ReviewResult = "created"
	ReviewUpdated ReviewResult = "updated"
)

// Rating is the aggregate derived from a product's reviews.
type Rating struct {
	Rate  float64 `bson:"rate" json:"rate"`
	Count int     `bson:"count" json:"count"`
}

// Review is one user's review embedded in a product document.
// UserName is captured when the review is written and never refreshed.
type Review struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserName  string             `bson:"user_name" json:"user_name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Product represents a catalog entry.
//
// Reviews and Rating must only be changed through UpsertReview and RemoveReview,
// which keep Rating consistent with Reviews.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Category    string             `bson:"category" json:"category"`
	Price       float64            `bson:"price" json:"price"`
	Rating      Rating             `bson:"rating" json:"rating"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ProductInput is the admin-editable part of a product.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Price       float64  `json:"price" validate:"gte=0"`
}

// UpsertReview replaces the user's existing review in place or appends a new one,
// then recomputes the rating over the whole list.
func (p *Product) UpsertReview(userID primitive.ObjectID, userName string, rating int, comment string, now time.Time) ReviewResult {
	result := ReviewCreated
	if i := p.reviewIndex(userID); i >= 0 {
		p.Reviews[i].Rating = rating
		p.Reviews[i].Comment = comment
		p.Reviews[i].CreatedAt = now
		result = ReviewUpdated
	} else {
		p.Reviews = append(p.Reviews, Review{
			UserID:    userID,
			UserName:  userName,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
		})
	}
	p.recomputeRating()
	return result
}

// RemoveReview deletes the user's review and recomputes the rating.
func (p *Product) RemoveReview(userID primitive.ObjectID) error {
	i := p.reviewIndex(userID)
	if i < 0 {
		return ErrReviewNotFound
	}
	p.Reviews = append(p.Reviews[:i], p.Reviews[i+1:]...)
	p.recomputeRating()
	return nil
}

// ReviewBy returns the user's review, if any.
func (p *Product) ReviewBy(userID primitive.ObjectID) (Review, bool) {
	if i := p.reviewIndex(userID); i >= 0 {
		return p.Reviews[i], true
	}
	return Review{}, false
}

func (p *Product) reviewIndex(userID primitive.ObjectID) int {
	for i, r := range p.Reviews {
		if r.UserID == userID {
			return i
		}
	}
	return -1
}

func (p *Product) recomputeRating() {
	p.Rating = AggregateRating(p.Reviews)
}

// AggregateRating computes {rate, count} for a review list, rate rounded to one decimal.
func AggregateRating(reviews []Review) Rating {
	if len(reviews) == 0 {
		return Rating{}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return Rating{
		Rate:  math.Round(mean*10) / 10,
		Count: len(reviews),
	}
}

// Snapshot copies the fields a guest cart keeps about a product.
func (p *Product) Snapshot() ProductSnapshot {
	s := ProductSnapshot{
		ID:       p.ID.Hex(),
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
	}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}
