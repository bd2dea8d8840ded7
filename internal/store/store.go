package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"wanderlink/internal/models"
)

// Repository is the persistence contract shared by the Postgres store and the
// in-memory store. Services depend on narrower subsets of it.
type Repository interface {
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, id, ownerID string, listing *models.Listing) (*models.Listing, error)
	SetVerifyStatus(ctx context.Context, id string, status models.VerifyStatus) (*models.Listing, error)

	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	ListReviews(ctx context.Context, listingID string) ([]*models.Review, error)

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
	ProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error)
	ApplySubscriptionChange(ctx context.Context, userID string, change models.SubscriptionChange) (*models.Profile, error)
	ExpireLapsedSupporters(ctx context.Context, cutoff time.Time) (int64, error)

	AddFavourite(ctx context.Context, userID, listingID string) (*models.Favourite, error)
	RemoveFavourite(ctx context.Context, userID, listingID string) error
	ListFavourites(ctx context.Context, userID string) ([]*models.Favourite, error)
}

// ListingFilter holds the predicates that can be pushed down to storage.
// Nil fields match everything.
type ListingFilter struct {
	Verify *models.VerifyStatus
	LType  *models.ListingType
}

// Matches reports whether the listing satisfies the filter.
func (f ListingFilter) Matches(l *models.Listing) bool {
	if f.Verify != nil && l.Verify != *f.Verify {
		return false
	}
	if f.LType != nil && l.LType != *f.LType {
		return false
	}
	return true
}

// Store provides persistence backed by Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*Store)(nil)

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func optionalString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
