package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"wanderlink/internal/models"
)

const profileColumns = `
	id, display_name, bio, interests, profile_picture_url,
	is_supporter, subscription_status, subscription_period_end,
	stripe_customer_id, stripe_subscription_id, created_at, updated_at`

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p                 models.Profile
		interests         []string
		periodEnd         sql.NullTime
		customerID, subID sql.NullString
	)
	if err := row.Scan(
		&p.UserID, &p.DisplayName, &p.Bio, pq.Array(&interests), &p.ProfilePictureURL,
		&p.IsSupporter, &p.SubscriptionStatus, &periodEnd,
		&customerID, &subID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if interests == nil {
		interests = []string{}
	}
	p.Interests = interests
	if periodEnd.Valid {
		end := periodEnd.Time.UTC()
		p.SubscriptionPeriodEnd = &end
	}
	p.StripeCustomerID = customerID.String
	p.StripeSubscriptionID = subID.String
	return &p, nil
}

// GetProfile returns the profile for a user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return profile, nil
}

// CreateProfile inserts a profile row. Supporter state always starts empty.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return nil, NewValidationError(map[string]string{"id": "user id is required"})
	}
	interests := profile.Interests
	if interests == nil {
		interests = []string{}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, display_name, bio, interests, profile_picture_url,
			is_supporter, subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $7)
		RETURNING `+profileColumns,
		profile.UserID, profile.DisplayName, profile.Bio, pq.Array(interests), profile.ProfilePictureURL,
		models.SubscriptionNone, s.now(),
	)
	created, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return created, nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if err := ValidateProfileUpdate(update); err != nil {
		return nil, err
	}

	var displayName any
	if update.DisplayName != nil {
		displayName = strings.TrimSpace(*update.DisplayName)
	}
	var interests any
	if update.Interests != nil {
		interests = pq.Array(*update.Interests)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE profiles SET
			display_name = COALESCE($1, display_name),
			bio = COALESCE($2, bio),
			interests = COALESCE($3::text[], interests),
			profile_picture_url = COALESCE($4, profile_picture_url),
			updated_at = $5
		WHERE id = $6
		RETURNING `+profileColumns,
		displayName, optionalString(update.Bio), interests, optionalString(update.ProfilePictureURL), s.now(), userID,
	)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// ProfileByCustomerID finds the profile linked to a Stripe customer.
func (s *Store) ProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error) {
	if customerID == "" {
		return nil, ErrProfileNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1`, customerID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("select profile by customer: %w", err)
	}
	return profile, nil
}

// ApplySubscriptionChange records billing state reported by the payment provider.
func (s *Store) ApplySubscriptionChange(ctx context.Context, userID string, change models.SubscriptionChange) (*models.Profile, error) {
	var supporter, periodEnd any
	if change.IsSupporter != nil {
		supporter = *change.IsSupporter
	}
	if change.PeriodEnd != nil {
		periodEnd = change.PeriodEnd.UTC()
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE profiles SET
			is_supporter = COALESCE($1, is_supporter),
			subscription_status = COALESCE($2, subscription_status),
			subscription_period_end = CASE WHEN $3::timestamptz IS NULL AND $8 THEN NULL
				ELSE COALESCE($3, subscription_period_end) END,
			stripe_customer_id = COALESCE($4, stripe_customer_id),
			stripe_subscription_id = COALESCE($5, stripe_subscription_id),
			updated_at = $6
		WHERE id = $7
		RETURNING `+profileColumns,
		supporter, optionalString(change.Status), periodEnd,
		optionalString(change.CustomerID), optionalString(change.SubscriptionID), s.now(), userID,
		change.ClearPeriodEnd,
	)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("apply subscription change: %w", err)
	}
	return profile, nil
}

// ExpireLapsedSupporters clears the supporter flag on profiles whose period
// ended before cutoff and returns how many were changed.
func (s *Store) ExpireLapsedSupporters(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET is_supporter = FALSE, updated_at = $1
		WHERE is_supporter
			AND subscription_period_end IS NOT NULL
			AND subscription_period_end < $2`,
		s.now(), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("expire supporters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire supporters rows: %w", err)
	}
	return n, nil
}
