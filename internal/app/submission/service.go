package submission

import (
	"context"

	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Creator persists an assembled listing on behalf of the caller.
type Creator interface {
	Create(ctx context.Context, identity *auth.Identity, listing *models.Listing) (*models.Listing, error)
}

// Service runs the submission workflow.
type Service interface {
	Submit(ctx context.Context, identity *auth.Identity, form *Form) (*models.Listing, error)
}

type service struct {
	listings Creator
}

// New constructs a submission Service that hands valid forms to listings.
func New(listings Creator) Service {
	return &service{listings: listings}
}

func (s *service) Submit(ctx context.Context, identity *auth.Identity, form *Form) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if form == nil {
		return nil, &store.ValidationError{Stage: StageBasics, Fields: map[string]string{"form": "Submission is empty"}}
	}
	if err := Validate(form); err != nil {
		return nil, err
	}
	return s.listings.Create(ctx, identity, ToListing(form))
}
