package profiles

import (
	"context"
	"errors"

	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Store defines the persistence hooks for profiles.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

// Service manages the caller's own profile.
type Service interface {
	Get(ctx context.Context, identity *auth.Identity) (*models.Profile, error)
	Update(ctx context.Context, identity *auth.Identity, update models.ProfileUpdate) (*models.Profile, error)
}

type service struct {
	store Store
}

// New constructs a profiles Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

// Get returns the caller's profile, creating an empty one on first access.
func (s *service) Get(ctx context.Context, identity *auth.Identity) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	return Ensure(ctx, s.store, identity.UserID)
}

func (s *service) Update(ctx context.Context, identity *auth.Identity, update models.ProfileUpdate) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if err := store.ValidateProfileUpdate(update); err != nil {
		return nil, err
	}
	if _, err := Ensure(ctx, s.store, identity.UserID); err != nil {
		return nil, err
	}
	return s.store.UpdateProfile(ctx, identity.UserID, update)
}

// Ensure fetches the profile for userID, creating it when missing. A
// concurrent creator winning the race is treated as success.
func Ensure(ctx context.Context, st Store, userID string) (*models.Profile, error) {
	profile, err := st.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, err
	}

	profile, err = st.CreateProfile(ctx, &models.Profile{UserID: userID})
	if errors.Is(err, store.ErrProfileExists) {
		return st.GetProfile(ctx, userID)
	}
	return profile, err
}
