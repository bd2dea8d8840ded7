// Package favorites lets supporters save listings.
package favorites

import (
	"context"
	"errors"
	"strings"

	"wanderlink/internal/app/profiles"
	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// ErrSupporterRequired is returned when a non-supporter tries to add a favourite.
var ErrSupporterRequired = errors.New("an active supporter subscription is required to save favourites")

// Store defines persistence operations required for favourites workflows.
type Store interface {
	profiles.Store
	AddFavourite(ctx context.Context, userID, listingID string) (*models.Favourite, error)
	RemoveFavourite(ctx context.Context, userID, listingID string) error
	ListFavourites(ctx context.Context, userID string) ([]*models.Favourite, error)
}

// Service describes high level favourites operations used by HTTP handlers.
type Service interface {
	Add(ctx context.Context, identity *auth.Identity, listingID string) (*models.Favourite, error)
	Remove(ctx context.Context, identity *auth.Identity, listingID string) error
	List(ctx context.Context, identity *auth.Identity) ([]*models.Favourite, error)
}

type service struct {
	store Store
}

// New constructs a favourites Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

// Add saves a listing. The caller must be an active supporter.
func (s *service) Add(ctx context.Context, identity *auth.Identity, listingID string) (*models.Favourite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, store.NewValidationError(map[string]string{"listing_id": "listing_id is required"})
	}

	profile, err := profiles.Ensure(ctx, s.store, identity.UserID)
	if err != nil {
		return nil, err
	}
	if !profile.ActiveSupporter() {
		return nil, ErrSupporterRequired
	}
	return s.store.AddFavourite(ctx, identity.UserID, listingID)
}

func (s *service) Remove(ctx context.Context, identity *auth.Identity, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identity == nil {
		return auth.ErrUnauthenticated
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return store.NewValidationError(map[string]string{"listing_id": "listing_id is required"})
	}
	return s.store.RemoveFavourite(ctx, identity.UserID, listingID)
}

func (s *service) List(ctx context.Context, identity *auth.Identity) ([]*models.Favourite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	return s.store.ListFavourites(ctx, identity.UserID)
}
