package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"wanderlink/internal/models"
)

var (
	fixedNow  = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	listingID = "8d2f3c1e-5b7a-4f0e-9c1d-2a3b4c5d6e7f"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

var listingColumnNames = []string{
	"id", "title", "description", "ltype", "start_date", "end_date", "is_permanent",
	"city", "region", "country", "lat", "lng", "price",
	"website", "facebook", "instagram", "other_link",
	"organiser_name", "organiser_email", "organiser_phone", "organiser_about",
	"age_min", "age_max", "capacity", "photo_urls",
	"verified_intent", "verify", "created_by", "created_at", "updated_at",
}

func listingRow(id, owner string, verify models.VerifyStatus) []driver.Value {
	return []driver.Value{
		id, "Canggu Cowork", "Desk space by the beach", "hub", nil, nil, true,
		"Canggu", "Bali", "Indonesia", -8.65, 115.13, nil,
		"https://example.com", nil, nil, nil,
		"Ayu", "ayu@example.com", nil, nil,
		nil, nil, int64(40), "{https://cdn.example.com/a.jpg}",
		true, string(verify), owner, fixedNow, fixedNow,
	}
}

func validHub() *models.Listing {
	lat, lng := -8.65, 115.13
	return &models.Listing{
		Title:       "Canggu Cowork",
		Description: "Desk space by the beach",
		LType:       models.ListingTypeHub,
		IsPermanent: true,
		Location:    models.Location{City: "Canggu", Region: "Bali", Country: "Indonesia", Lat: &lat, Lng: &lng},
		Website:     "https://example.com",
		CreatedBy:   "user-1",
	}
}

func TestCreateListingRejectsInvalidPayload(t *testing.T) {
	s, mock := newMockStore(t)

	listing := validHub()
	listing.Title = "ab"
	listing.LType = "party"

	_, err := s.CreateListing(context.Background(), listing)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Fatalf("expected title field error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["ltype"]; !ok {
		t.Fatalf("expected ltype field error, got %v", verr.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database calls: %v", err)
	}
}

func TestCreateListingStartsPending(t *testing.T) {
	s, mock := newMockStore(t)

	listing := validHub()
	listing.Verify = models.VerifyVerified

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO listings")).
		WillReturnRows(sqlmock.NewRows(listingColumnNames).AddRow(listingRow(listingID, "user-1", models.VerifyPending)...))

	created, err := s.CreateListing(context.Background(), listing)
	if err != nil {
		t.Fatalf("CreateListing returned error: %v", err)
	}
	if created.ID != listingID {
		t.Fatalf("expected id %s, got %s", listingID, created.ID)
	}
	if created.Verify != models.VerifyPending {
		t.Fatalf("expected pending listing, got %s", created.Verify)
	}
	if created.Lat == nil || *created.Lat != -8.65 {
		t.Fatalf("expected latitude to round-trip, got %v", created.Lat)
	}
	if len(created.PhotoURLs) != 1 || created.PhotoURLs[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected photo urls %v", created.PhotoURLs)
	}
	if created.Capacity == nil || *created.Capacity != 40 {
		t.Fatalf("expected capacity 40, got %v", created.Capacity)
	}
	if created.StartDate != nil {
		t.Fatalf("expected no start date, got %v", *created.StartDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetListingNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	if _, err := s.GetListing(context.Background(), "not-a-uuid"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound for malformed id, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM listings WHERE id = $1")).
		WithArgs(listingID).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.GetListing(context.Background(), listingID); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListListingsPushesDownFilter(t *testing.T) {
	s, mock := newMockStore(t)

	verify := models.VerifyVerified
	ltype := models.ListingTypeHub

	mock.ExpectQuery(regexp.QuoteMeta("AND verify = $1 AND ltype = $2 ORDER BY created_at DESC")).
		WithArgs("verified", "hub").
		WillReturnRows(sqlmock.NewRows(listingColumnNames).
			AddRow(listingRow(listingID, "user-1", models.VerifyVerified)...))

	listings, err := s.ListListings(context.Background(), ListingFilter{Verify: &verify, LType: &ltype})
	if err != nil {
		t.Fatalf("ListListings returned error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateListingRejectsNonOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_by FROM listings WHERE id = $1 FOR UPDATE")).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"created_by"}).AddRow("someone-else"))
	mock.ExpectRollback()

	_, err := s.UpdateListing(context.Background(), listingID, "user-1", validHub())
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateListingAsOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_by FROM listings WHERE id = $1 FOR UPDATE")).
		WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"created_by"}).AddRow("user-1"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE listings SET")).
		WillReturnRows(sqlmock.NewRows(listingColumnNames).AddRow(listingRow(listingID, "user-1", models.VerifyVerified)...))
	mock.ExpectCommit()

	updated, err := s.UpdateListing(context.Background(), listingID, "user-1", validHub())
	if err != nil {
		t.Fatalf("UpdateListing returned error: %v", err)
	}
	if updated.Verify != models.VerifyVerified {
		t.Fatalf("expected moderation state to be preserved, got %s", updated.Verify)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetVerifyStatusMissingListing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE listings SET verify = $1")).
		WithArgs("rejected", fixedNow, listingID).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.SetVerifyStatus(context.Background(), listingID, models.VerifyRejected); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateReviewUnknownListing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := s.CreateReview(context.Background(), &models.Review{ListingID: listingID, UserID: "user-1", Rating: 4})
	if !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateReviewRejectsRating(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.CreateReview(context.Background(), &models.Review{ListingID: listingID, UserID: "user-1", Rating: 6})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAddFavouriteDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO favourites")).
		WithArgs(sqlmock.AnyArg(), "user-1", listingID, fixedNow).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := s.AddFavourite(context.Background(), "user-1", listingID); !errors.Is(err, ErrFavouriteExists) {
		t.Fatalf("expected ErrFavouriteExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFavouriteMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favourites WHERE user_id = $1 AND listing_id = $2")).
		WithArgs("user-1", listingID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.RemoveFavourite(context.Background(), "user-1", listingID); !errors.Is(err, ErrFavouriteNotFound) {
		t.Fatalf("expected ErrFavouriteNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var profileColumnNames = []string{
	"id", "display_name", "bio", "interests", "profile_picture_url",
	"is_supporter", "subscription_status", "subscription_period_end",
	"stripe_customer_id", "stripe_subscription_id", "created_at", "updated_at",
}

func TestCreateProfileDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := s.CreateProfile(context.Background(), &models.Profile{UserID: "user-1"}); !errors.Is(err, ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
}

func TestApplySubscriptionChange(t *testing.T) {
	s, mock := newMockStore(t)

	end := fixedNow.Add(30 * 24 * time.Hour)
	supporter := true
	status := models.SubscriptionActive

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET")).
		WithArgs(true, "active", end, nil, nil, fixedNow, "user-1", false).
		WillReturnRows(sqlmock.NewRows(profileColumnNames).AddRow(
			"user-1", "Nomad", "", "{surfing,coffee}", "",
			true, "active", end, "cus_123", "sub_123", fixedNow, fixedNow,
		))

	profile, err := s.ApplySubscriptionChange(context.Background(), "user-1", models.SubscriptionChange{
		IsSupporter: &supporter,
		Status:      &status,
		PeriodEnd:   &end,
	})
	if err != nil {
		t.Fatalf("ApplySubscriptionChange returned error: %v", err)
	}
	if !profile.ActiveSupporter() {
		t.Fatalf("expected active supporter")
	}
	if profile.StripeSubscriptionID != "sub_123" {
		t.Fatalf("expected subscription id sub_123, got %q", profile.StripeSubscriptionID)
	}
	if len(profile.Interests) != 2 {
		t.Fatalf("expected two interests, got %v", profile.Interests)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplySubscriptionChangeClearsPeriodEnd(t *testing.T) {
	s, mock := newMockStore(t)

	supporter := true
	status := models.SubscriptionActive

	mock.ExpectQuery(regexp.QuoteMeta("subscription_period_end = CASE WHEN $3::timestamptz IS NULL AND $8 THEN NULL")).
		WithArgs(true, "active", nil, nil, nil, fixedNow, "user-1", true).
		WillReturnRows(sqlmock.NewRows(profileColumnNames).AddRow(
			"user-1", "", "", "{}", "",
			true, "active", nil, "cus_123", "sub_456", fixedNow, fixedNow,
		))

	profile, err := s.ApplySubscriptionChange(context.Background(), "user-1", models.SubscriptionChange{
		IsSupporter:    &supporter,
		Status:         &status,
		ClearPeriodEnd: true,
	})
	if err != nil {
		t.Fatalf("ApplySubscriptionChange returned error: %v", err)
	}
	if profile.SubscriptionPeriodEnd != nil {
		t.Fatalf("expected period end to be cleared, got %v", profile.SubscriptionPeriodEnd)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	s, _ := newMockStore(t)

	interests := make([]string, 21)
	for i := range interests {
		interests[i] = "hiking"
	}
	_, err := s.UpdateProfile(context.Background(), "user-1", models.ProfileUpdate{Interests: &interests})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["interests"]; !ok {
		t.Fatalf("expected interests error, got %v", verr.Fields)
	}
}

func TestExpireLapsedSupporters(t *testing.T) {
	s, mock := newMockStore(t)

	cutoff := fixedNow.Add(-48 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_supporter = FALSE")).
		WithArgs(fixedNow, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.ExpireLapsedSupporters(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ExpireLapsedSupporters returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}
