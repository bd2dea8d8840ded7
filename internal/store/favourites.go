package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wanderlink/internal/models"
)

// AddFavourite saves a listing for a user.
func (s *Store) AddFavourite(ctx context.Context, userID, listingID string) (*models.Favourite, error) {
	if _, err := uuid.Parse(listingID); err != nil {
		return nil, ErrListingNotFound
	}

	var fav models.Favourite
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO favourites (id, user_id, listing_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, listing_id, created_at`,
		uuid.NewString(), userID, listingID, s.now(),
	).Scan(&fav.ID, &fav.UserID, &fav.ListingID, &fav.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrFavouriteExists
		case isForeignKeyViolation(err):
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("insert favourite: %w", err)
	}
	return &fav, nil
}

// RemoveFavourite deletes a saved listing.
func (s *Store) RemoveFavourite(ctx context.Context, userID, listingID string) error {
	if _, err := uuid.Parse(listingID); err != nil {
		return ErrFavouriteNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM favourites WHERE user_id = $1 AND listing_id = $2`, userID, listingID)
	if err != nil {
		return fmt.Errorf("delete favourite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete favourite rows: %w", err)
	}
	if n == 0 {
		return ErrFavouriteNotFound
	}
	return nil
}

// ListFavourites returns a user's favourites, newest first.
func (s *Store) ListFavourites(ctx context.Context, userID string) ([]*models.Favourite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, listing_id, created_at
		FROM favourites
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	defer rows.Close()

	favourites := make([]*models.Favourite, 0)
	for rows.Next() {
		var f models.Favourite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favourite: %w", err)
		}
		favourites = append(favourites, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favourites: %w", err)
	}
	return favourites, nil
}
