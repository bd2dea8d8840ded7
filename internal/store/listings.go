package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"wanderlink/internal/models"
)

const listingColumns = `
	id, title, description, ltype,
	to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), is_permanent,
	city, region, country, lat, lng, price,
	website, facebook, instagram, other_link,
	organiser_name, organiser_email, organiser_phone, organiser_about,
	age_min, age_max, capacity, photo_urls,
	verified_intent, verify, created_by, created_at, updated_at`

func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		l                        models.Listing
		ltype, verify            string
		start, end               sql.NullString
		lat, lng, price          sql.NullFloat64
		ageMin, ageMax, capacity sql.NullInt64
		website, facebook        sql.NullString
		instagram, other         sql.NullString
		orgName, orgEmail        sql.NullString
		orgPhone, orgAbout       sql.NullString
		photos                   []string
	)
	if err := row.Scan(
		&l.ID, &l.Title, &l.Description, &ltype,
		&start, &end, &l.IsPermanent,
		&l.City, &l.Region, &l.Country, &lat, &lng, &price,
		&website, &facebook, &instagram, &other,
		&orgName, &orgEmail, &orgPhone, &orgAbout,
		&ageMin, &ageMax, &capacity, pq.Array(&photos),
		&l.VerifiedIntent, &verify, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.LType = models.ListingType(ltype)
	l.Verify = models.VerifyStatus(verify)
	l.StartDate = stringPtr(start)
	l.EndDate = stringPtr(end)
	l.Lat = floatPtr(lat)
	l.Lng = floatPtr(lng)
	l.Price = floatPtr(price)
	l.Website = website.String
	l.Facebook = facebook.String
	l.Instagram = instagram.String
	l.OtherLink = other.String
	l.OrganiserName = orgName.String
	l.OrganiserEmail = orgEmail.String
	l.OrganiserPhone = orgPhone.String
	l.OrganiserAbout = orgAbout.String
	l.AgeMin = intPtr(ageMin)
	l.AgeMax = intPtr(ageMax)
	l.Capacity = intPtr(capacity)
	if photos == nil {
		photos = []string{}
	}
	l.PhotoURLs = photos
	return &l, nil
}

// CreateListing validates and inserts a listing. New listings always start pending.
func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if listing == nil {
		return nil, NewValidationError(map[string]string{"listing": "listing is required"})
	}
	if err := ValidateListing(listing); err != nil {
		return nil, err
	}
	NormalizeDates(listing)

	photos := listing.PhotoURLs
	if photos == nil {
		photos = []string{}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO listings (
			id, title, description, ltype, start_date, end_date, is_permanent,
			city, region, country, lat, lng, price,
			website, facebook, instagram, other_link,
			organiser_name, organiser_email, organiser_phone, organiser_about,
			age_min, age_max, capacity, photo_urls,
			verified_intent, verify, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $29)
		RETURNING `+listingColumns,
		uuid.NewString(), strings.TrimSpace(listing.Title), listing.Description, string(listing.LType),
		optionalString(listing.StartDate), optionalString(listing.EndDate), listing.IsPermanent,
		listing.City, listing.Region, listing.Country,
		optionalFloat(listing.Lat), optionalFloat(listing.Lng), optionalFloat(listing.Price),
		nullString(listing.Website), nullString(listing.Facebook), nullString(listing.Instagram), nullString(listing.OtherLink),
		nullString(listing.OrganiserName), nullString(listing.OrganiserEmail), nullString(listing.OrganiserPhone), nullString(listing.OrganiserAbout),
		optionalInt(listing.AgeMin), optionalInt(listing.AgeMax), optionalInt(listing.Capacity), pq.Array(photos),
		listing.VerifiedIntent, string(models.VerifyPending), listing.CreatedBy, s.now(),
	)

	created, err := scanListing(row)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return created, nil
}

// GetListing fetches a single listing by id.
func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrListingNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("select listing: %w", err)
	}
	return listing, nil
}

// ListListings returns listings matching the pushed-down filter, newest first.
func (s *Store) ListListings(ctx context.Context, filter ListingFilter) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1=1`
	var args []any
	if filter.Verify != nil {
		args = append(args, string(*filter.Verify))
		query += fmt.Sprintf(" AND verify = $%d", len(args))
	}
	if filter.LType != nil {
		args = append(args, string(*filter.LType))
		query += fmt.Sprintf(" AND ltype = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]*models.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// UpdateListing replaces the editable fields of a listing. When ownerID is
// non-empty the caller must be the listing's creator. Moderation state,
// creator and creation time are never changed here.
func (s *Store) UpdateListing(ctx context.Context, id, ownerID string, listing *models.Listing) (*models.Listing, error) {
	if listing == nil {
		return nil, NewValidationError(map[string]string{"listing": "listing is required"})
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrListingNotFound
	}
	if err := ValidateListing(listing); err != nil {
		return nil, err
	}
	NormalizeDates(listing)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var createdBy string
	err = tx.QueryRowContext(ctx, `SELECT created_by FROM listings WHERE id = $1 FOR UPDATE`, id).Scan(&createdBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("lock listing: %w", err)
	}
	if ownerID != "" && createdBy != ownerID {
		err = ErrNotOwner
		return nil, err
	}

	photos := listing.PhotoURLs
	if photos == nil {
		photos = []string{}
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE listings SET
			title = $1, description = $2, ltype = $3, start_date = $4, end_date = $5, is_permanent = $6,
			city = $7, region = $8, country = $9, lat = $10, lng = $11, price = $12,
			website = $13, facebook = $14, instagram = $15, other_link = $16,
			organiser_name = $17, organiser_email = $18, organiser_phone = $19, organiser_about = $20,
			age_min = $21, age_max = $22, capacity = $23, photo_urls = $24,
			verified_intent = $25, updated_at = $26
		WHERE id = $27
		RETURNING `+listingColumns,
		strings.TrimSpace(listing.Title), listing.Description, string(listing.LType),
		optionalString(listing.StartDate), optionalString(listing.EndDate), listing.IsPermanent,
		listing.City, listing.Region, listing.Country,
		optionalFloat(listing.Lat), optionalFloat(listing.Lng), optionalFloat(listing.Price),
		nullString(listing.Website), nullString(listing.Facebook), nullString(listing.Instagram), nullString(listing.OtherLink),
		nullString(listing.OrganiserName), nullString(listing.OrganiserEmail), nullString(listing.OrganiserPhone), nullString(listing.OrganiserAbout),
		optionalInt(listing.AgeMin), optionalInt(listing.AgeMax), optionalInt(listing.Capacity), pq.Array(photos),
		listing.VerifiedIntent, s.now(), id,
	)

	var updated *models.Listing
	updated, err = scanListing(row)
	if err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update listing: %w", err)
	}
	return updated, nil
}

// SetVerifyStatus records a moderation decision.
func (s *Store) SetVerifyStatus(ctx context.Context, id string, status models.VerifyStatus) (*models.Listing, error) {
	if !status.Valid() {
		return nil, NewValidationError(map[string]string{"verify": "unknown verification status"})
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrListingNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE listings SET verify = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+listingColumns,
		string(status), s.now(), id,
	)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("set verify status: %w", err)
	}
	return listing, nil
}
