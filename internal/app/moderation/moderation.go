// Package moderation implements the listing verification state machine and
// the admin operations built on it.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// ErrInvalidTransition is returned by the strict policy for moves out of a
// decided state.
var ErrInvalidTransition = errors.New("invalid verification transition")

// ErrUnknownAction is returned for admin actions other than verify or reject.
var ErrUnknownAction = errors.New("action must be verify or reject")

// Policy controls which verification transitions are accepted.
type Policy int

const (
	// Permissive lets an admin overwrite any state with verified or rejected.
	Permissive Policy = iota
	// Strict only allows pending to verified or rejected, plus same-state repeats.
	Strict
)

// Action names accepted by Apply.
const (
	ActionVerify = "verify"
	ActionReject = "reject"
)

// Transition checks whether from may move to to under policy.
func Transition(from, to models.VerifyStatus, policy Policy) error {
	if to != models.VerifyVerified && to != models.VerifyRejected {
		return fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, to)
	}
	if from == to || policy == Permissive {
		return nil
	}
	if from == models.VerifyPending {
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// Store defines the persistence hooks moderation needs.
type Store interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, filter store.ListingFilter) ([]*models.Listing, error)
	SetVerifyStatus(ctx context.Context, id string, status models.VerifyStatus) (*models.Listing, error)
}

// Service exposes the admin moderation operations.
type Service interface {
	CheckRole(ctx context.Context, identity *auth.Identity) (bool, error)
	ListPending(ctx context.Context, identity *auth.Identity) ([]*models.Listing, error)
	Verify(ctx context.Context, identity *auth.Identity, id string) (*models.Listing, error)
	Reject(ctx context.Context, identity *auth.Identity, id string) (*models.Listing, error)
	Apply(ctx context.Context, identity *auth.Identity, id, action string) (*models.Listing, error)
}

type service struct {
	store  Store
	policy Policy
}

// New constructs a moderation Service.
func New(store Store, policy Policy) Service {
	return &service{store: store, policy: policy}
}

func (s *service) CheckRole(ctx context.Context, identity *auth.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if identity == nil {
		return false, auth.ErrUnauthenticated
	}
	return auth.IsAdmin(identity), nil
}

func (s *service) ListPending(ctx context.Context, identity *auth.Identity) ([]*models.Listing, error) {
	if err := requireAdmin(ctx, identity); err != nil {
		return nil, err
	}
	pending := models.VerifyPending
	return s.store.ListListings(ctx, store.ListingFilter{Verify: &pending})
}

func (s *service) Verify(ctx context.Context, identity *auth.Identity, id string) (*models.Listing, error) {
	return s.move(ctx, identity, id, models.VerifyVerified)
}

func (s *service) Reject(ctx context.Context, identity *auth.Identity, id string) (*models.Listing, error) {
	return s.move(ctx, identity, id, models.VerifyRejected)
}

func (s *service) Apply(ctx context.Context, identity *auth.Identity, id, action string) (*models.Listing, error) {
	switch action {
	case ActionVerify:
		return s.Verify(ctx, identity, id)
	case ActionReject:
		return s.Reject(ctx, identity, id)
	}
	if err := requireAdmin(ctx, identity); err != nil {
		return nil, err
	}
	return nil, ErrUnknownAction
}

func (s *service) move(ctx context.Context, identity *auth.Identity, id string, to models.VerifyStatus) (*models.Listing, error) {
	if err := requireAdmin(ctx, identity); err != nil {
		return nil, err
	}
	current, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(current.Verify, to, s.policy); err != nil {
		return nil, err
	}
	if current.Verify == to {
		return current, nil
	}
	return s.store.SetVerifyStatus(ctx, id, to)
}

func requireAdmin(ctx context.Context, identity *auth.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identity == nil {
		return auth.ErrUnauthenticated
	}
	if !auth.IsAdmin(identity) {
		return auth.ErrForbidden
	}
	return nil
}
