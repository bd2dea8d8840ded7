package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wanderlink/internal/models"
)

// CreateReview validates and stores a review for an existing listing.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review == nil {
		return nil, NewValidationError(map[string]string{"review": "review is required"})
	}
	if err := ValidateReview(review); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(review.ListingID); err != nil {
		return nil, ErrListingNotFound
	}

	var created models.Review
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, listing_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, listing_id, user_id, rating, comment, created_at`,
		uuid.NewString(), review.ListingID, review.UserID, review.Rating, strings.TrimSpace(review.Comment), s.now(),
	).Scan(&created.ID, &created.ListingID, &created.UserID, &created.Rating, &created.Comment, &created.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return &created, nil
}

// ListReviews returns the reviews for a listing, newest first.
func (s *Store) ListReviews(ctx context.Context, listingID string) ([]*models.Review, error) {
	if _, err := uuid.Parse(listingID); err != nil {
		return []*models.Review{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE listing_id = $1
		ORDER BY created_at DESC`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ListingID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}
