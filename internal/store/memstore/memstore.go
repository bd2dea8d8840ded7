// Package memstore implements store.Repository in memory for local runs and tests.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Store keeps every record in maps guarded by a single RWMutex. Values handed
// out are copies.
type Store struct {
	mu sync.RWMutex

	listings     map[string]*models.Listing
	listingOrder []string
	reviews      map[string][]*models.Review
	profiles     map[string]*models.Profile
	favourites   map[string][]*models.Favourite

	now func() time.Time
}

var _ store.Repository = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		listings:   make(map[string]*models.Listing),
		reviews:    make(map[string][]*models.Review),
		profiles:   make(map[string]*models.Profile),
		favourites: make(map[string][]*models.Favourite),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateListing validates and stores a listing in the pending state.
func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, store.NewValidationError(map[string]string{"listing": "listing is required"})
	}
	if err := store.ValidateListing(listing); err != nil {
		return nil, err
	}

	created := listing.Clone()
	store.NormalizeDates(created)
	created.ID = uuid.NewString()
	created.Title = strings.TrimSpace(created.Title)
	created.Verify = models.VerifyPending
	if created.PhotoURLs == nil {
		created.PhotoURLs = []string{}
	}
	now := s.now()
	created.CreatedAt = now
	created.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[created.ID] = created
	s.listingOrder = append(s.listingOrder, created.ID)
	return created.Clone(), nil
}

// GetListing returns a copy of the listing.
func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, store.ErrListingNotFound
	}
	return listing.Clone(), nil
}

// ListListings returns matching listings, newest first.
func (s *Store) ListListings(ctx context.Context, filter store.ListingFilter) ([]*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Listing, 0, len(s.listingOrder))
	for i := len(s.listingOrder) - 1; i >= 0; i-- {
		listing := s.listings[s.listingOrder[i]]
		if filter.Matches(listing) {
			result = append(result, listing.Clone())
		}
	}
	return result, nil
}

// UpdateListing replaces the editable fields. An empty ownerID skips the ownership check.
func (s *Store) UpdateListing(ctx context.Context, id, ownerID string, listing *models.Listing) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, store.NewValidationError(map[string]string{"listing": "listing is required"})
	}
	if err := store.ValidateListing(listing); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listings[id]
	if !ok {
		return nil, store.ErrListingNotFound
	}
	if ownerID != "" && existing.CreatedBy != ownerID {
		return nil, store.ErrNotOwner
	}

	updated := listing.Clone()
	store.NormalizeDates(updated)
	updated.ID = existing.ID
	updated.Title = strings.TrimSpace(updated.Title)
	updated.Verify = existing.Verify
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()
	if updated.PhotoURLs == nil {
		updated.PhotoURLs = []string{}
	}
	s.listings[id] = updated
	return updated.Clone(), nil
}

// SetVerifyStatus records a moderation decision.
func (s *Store) SetVerifyStatus(ctx context.Context, id string, status models.VerifyStatus) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, store.NewValidationError(map[string]string{"verify": "unknown verification status"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, store.ErrListingNotFound
	}
	listing.Verify = status
	listing.UpdatedAt = s.now()
	return listing.Clone(), nil
}

// CreateReview stores a review against an existing listing.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if review == nil {
		return nil, store.NewValidationError(map[string]string{"review": "review is required"})
	}
	if err := store.ValidateReview(review); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[review.ListingID]; !ok {
		return nil, store.ErrListingNotFound
	}

	created := *review
	created.ID = uuid.NewString()
	created.Comment = strings.TrimSpace(created.Comment)
	created.CreatedAt = s.now()
	s.reviews[created.ListingID] = append(s.reviews[created.ListingID], &created)

	out := created
	return &out, nil
}

// ListReviews returns a listing's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, listingID string) ([]*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.reviews[listingID]
	result := make([]*models.Review, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		r := *stored[i]
		result = append(result, &r)
	}
	return result, nil
}

// GetProfile returns a copy of the user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

// CreateProfile stores a new profile with empty supporter state.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return nil, store.NewValidationError(map[string]string{"id": "user id is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.UserID]; ok {
		return nil, store.ErrProfileExists
	}

	now := s.now()
	created := &models.Profile{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		Bio:                profile.Bio,
		Interests:          append([]string{}, profile.Interests...),
		ProfilePictureURL:  profile.ProfilePictureURL,
		SubscriptionStatus: models.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.profiles[created.UserID] = created
	return cloneProfile(created), nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidateProfileUpdate(update); err != nil {
		return nil, err
	}
	if update.DisplayName != nil {
		trimmed := strings.TrimSpace(*update.DisplayName)
		update.DisplayName = &trimmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	update.Apply(profile)
	profile.UpdatedAt = s.now()
	return cloneProfile(profile), nil
}

// ProfileByCustomerID finds the profile linked to a Stripe customer.
func (s *Store) ProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, store.ErrProfileNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.profiles {
		if profile.StripeCustomerID == customerID {
			return cloneProfile(profile), nil
		}
	}
	return nil, store.ErrProfileNotFound
}

// ApplySubscriptionChange records billing state for a user.
func (s *Store) ApplySubscriptionChange(ctx context.Context, userID string, change models.SubscriptionChange) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	change.Apply(profile)
	profile.UpdatedAt = s.now()
	return cloneProfile(profile), nil
}

// ExpireLapsedSupporters clears the supporter flag on profiles whose period ended before cutoff.
func (s *Store) ExpireLapsedSupporters(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, profile := range s.profiles {
		if profile.IsSupporter && profile.SubscriptionPeriodEnd != nil && profile.SubscriptionPeriodEnd.Before(cutoff) {
			profile.IsSupporter = false
			profile.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

// AddFavourite saves a listing for a user.
func (s *Store) AddFavourite(ctx context.Context, userID, listingID string) (*models.Favourite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listingID]; !ok {
		return nil, store.ErrListingNotFound
	}
	for _, f := range s.favourites[userID] {
		if f.ListingID == listingID {
			return nil, store.ErrFavouriteExists
		}
	}
	fav := &models.Favourite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: s.now(),
	}
	s.favourites[userID] = append(s.favourites[userID], fav)
	out := *fav
	return &out, nil
}

// RemoveFavourite deletes a saved listing.
func (s *Store) RemoveFavourite(ctx context.Context, userID, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	favs := s.favourites[userID]
	for i, f := range favs {
		if f.ListingID == listingID {
			s.favourites[userID] = append(favs[:i:i], favs[i+1:]...)
			return nil
		}
	}
	return store.ErrFavouriteNotFound
}

// ListFavourites returns a user's favourites, newest first.
func (s *Store) ListFavourites(ctx context.Context, userID string) ([]*models.Favourite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	favs := s.favourites[userID]
	result := make([]*models.Favourite, 0, len(favs))
	for i := len(favs) - 1; i >= 0; i-- {
		f := *favs[i]
		result = append(result, &f)
	}
	return result, nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	c.Interests = append([]string{}, p.Interests...)
	if p.SubscriptionPeriodEnd != nil {
		end := *p.SubscriptionPeriodEnd
		c.SubscriptionPeriodEnd = &end
	}
	return &c
}
