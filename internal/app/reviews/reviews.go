// Package reviews stores listing reviews and aggregates their ratings.
package reviews

import (
	"context"

	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Summary aggregates the ratings of a listing. HasRating is false when there
// are no reviews, in which case Average is zero.
type Summary struct {
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
	HasRating bool    `json:"has_rating"`
}

// Summarize computes the arithmetic mean rating of reviews.
func Summarize(reviews []*models.Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return Summary{
		Count:     len(reviews),
		Average:   float64(total) / float64(len(reviews)),
		HasRating: true,
	}
}

// Store defines the persistence hooks for reviews.
type Store interface {
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	ListReviews(ctx context.Context, listingID string) ([]*models.Review, error)
}

// Service coordinates review creation and listing.
type Service interface {
	Create(ctx context.Context, identity *auth.Identity, review *models.Review) (*models.Review, error)
	List(ctx context.Context, listingID string) ([]*models.Review, Summary, error)
}

type service struct {
	store Store
}

// New constructs a reviews Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Create(ctx context.Context, identity *auth.Identity, review *models.Review) (*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if review == nil {
		return nil, store.NewValidationError(map[string]string{"review": "review is required"})
	}
	r := *review
	r.UserID = identity.UserID
	return s.store.CreateReview(ctx, &r)
}

func (s *service) List(ctx context.Context, listingID string) ([]*models.Review, Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}
	reviews, err := s.store.ListReviews(ctx, listingID)
	if err != nil {
		return nil, Summary{}, err
	}
	return reviews, Summarize(reviews), nil
}
