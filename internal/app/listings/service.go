// Package listings holds the listing query engine and the create, read and
// update workflows around it.
package listings

import (
	"context"

	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Store defines the persistence hooks the listing workflows need.
type Store interface {
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, filter store.ListingFilter) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, id, ownerID string, listing *models.Listing) (*models.Listing, error)
}

// Service coordinates listing workflows.
type Service interface {
	Create(ctx context.Context, identity *auth.Identity, listing *models.Listing) (*models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Search(ctx context.Context, q Query) ([]*models.Listing, error)
	Update(ctx context.Context, identity *auth.Identity, id string, listing *models.Listing) (*models.Listing, error)
}

type service struct {
	store Store
}

// New constructs a listings Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Create(ctx context.Context, identity *auth.Identity, listing *models.Listing) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if listing == nil {
		return nil, store.NewValidationError(map[string]string{"listing": "listing is required"})
	}
	listing.CreatedBy = identity.UserID
	listing.Verify = models.VerifyPending
	return s.store.CreateListing(ctx, listing)
}

func (s *service) Get(ctx context.Context, id string) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetListing(ctx, id)
}

// Search pushes the verification and type predicates to storage and runs the
// full query over the result so every store behaves the same.
func (s *service) Search(ctx context.Context, q Query) ([]*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	listings, err := s.store.ListListings(ctx, pushdown(q))
	if err != nil {
		return nil, err
	}
	return Apply(listings, q), nil
}

func (s *service) Update(ctx context.Context, identity *auth.Identity, id string, listing *models.Listing) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if listing == nil {
		return nil, store.NewValidationError(map[string]string{"listing": "listing is required"})
	}
	owner := identity.UserID
	if auth.IsAdmin(identity) {
		owner = ""
	}
	return s.store.UpdateListing(ctx, id, owner, listing)
}

func pushdown(q Query) store.ListingFilter {
	var f store.ListingFilter
	if q.Verified != nil {
		status := models.VerifyPending
		if *q.Verified {
			status = models.VerifyVerified
		}
		f.Verify = &status
	}
	f.LType = q.LType
	return f
}
