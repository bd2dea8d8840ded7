package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wanderlink/internal/app/billing"
	"wanderlink/internal/app/favorites"
	"wanderlink/internal/app/listings"
	"wanderlink/internal/app/moderation"
	"wanderlink/internal/app/reviews"
	"wanderlink/internal/app/submission"
	"wanderlink/internal/auth"
	"wanderlink/internal/models"
	"wanderlink/internal/storage"
	"wanderlink/internal/store"
)

type stubVerifier map[string]*auth.Identity

func (v stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if identity, ok := v[token]; ok {
		return identity, nil
	}
	return nil, auth.ErrUnauthenticated
}

var testVerifier = stubVerifier{
	"user-token":  {UserID: "user-1", Email: "user@example.com"},
	"admin-token": {UserID: "admin-1", Roles: []string{auth.RoleAdmin}},
}

type stubListingService struct {
	searchResponse []*models.Listing
	lastQuery      listings.Query

	createErr   error
	lastCreated *models.Listing
	lastCaller  *auth.Identity

	getErr    error
	updateErr error
}

func (s *stubListingService) Create(_ context.Context, identity *auth.Identity, listing *models.Listing) (*models.Listing, error) {
	s.lastCaller = identity
	s.lastCreated = listing
	if s.createErr != nil {
		return nil, s.createErr
	}
	created := listing.Clone()
	created.ID = "listing-1"
	created.Verify = models.VerifyPending
	return created, nil
}

func (s *stubListingService) Get(_ context.Context, id string) (*models.Listing, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Listing{ID: id, Title: "Hub"}, nil
}

func (s *stubListingService) Search(_ context.Context, q listings.Query) ([]*models.Listing, error) {
	s.lastQuery = q
	return s.searchResponse, nil
}

func (s *stubListingService) Update(_ context.Context, _ *auth.Identity, id string, listing *models.Listing) (*models.Listing, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	listing.ID = id
	return listing, nil
}

type stubReviewService struct {
	lastListingID string
	createErr     error
}

func (s *stubReviewService) Create(_ context.Context, _ *auth.Identity, review *models.Review) (*models.Review, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	review.ID = "review-1"
	return review, nil
}

func (s *stubReviewService) List(_ context.Context, listingID string) ([]*models.Review, reviews.Summary, error) {
	s.lastListingID = listingID
	return nil, reviews.Summary{}, nil
}

type stubSubmissionService struct {
	err error
}

func (s *stubSubmissionService) Submit(_ context.Context, _ *auth.Identity, form *submission.Form) (*models.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Listing{ID: "listing-2", Title: form.Title, Verify: models.VerifyPending}, nil
}

type stubProfileService struct{}

func (stubProfileService) Get(_ context.Context, identity *auth.Identity) (*models.Profile, error) {
	return &models.Profile{UserID: identity.UserID, SubscriptionStatus: models.SubscriptionNone}, nil
}

func (stubProfileService) Update(_ context.Context, identity *auth.Identity, update models.ProfileUpdate) (*models.Profile, error) {
	p := &models.Profile{UserID: identity.UserID}
	update.Apply(p)
	return p, nil
}

type stubFavouriteService struct {
	addErr    error
	removeErr error
	lastID    string
}

func (s *stubFavouriteService) Add(_ context.Context, identity *auth.Identity, listingID string) (*models.Favourite, error) {
	s.lastID = listingID
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &models.Favourite{ID: "fav-1", UserID: identity.UserID, ListingID: listingID}, nil
}

func (s *stubFavouriteService) Remove(_ context.Context, _ *auth.Identity, listingID string) error {
	s.lastID = listingID
	return s.removeErr
}

func (s *stubFavouriteService) List(context.Context, *auth.Identity) ([]*models.Favourite, error) {
	return nil, nil
}

type stubModerationService struct {
	applyErr error
}

func (s *stubModerationService) CheckRole(_ context.Context, identity *auth.Identity) (bool, error) {
	return auth.IsAdmin(identity), nil
}

func (s *stubModerationService) ListPending(_ context.Context, identity *auth.Identity) ([]*models.Listing, error) {
	if !auth.IsAdmin(identity) {
		return nil, auth.ErrForbidden
	}
	return nil, nil
}

func (s *stubModerationService) Apply(_ context.Context, _ *auth.Identity, id, _ string) (*models.Listing, error) {
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &models.Listing{ID: id, Verify: models.VerifyVerified}, nil
}

type stubBillingService struct {
	webhookErr error
	cancelErr  error
}

func (s *stubBillingService) CreateCheckout(context.Context, *auth.Identity) (*billing.CheckoutSession, error) {
	return &billing.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/c/cs_test"}, nil
}

func (s *stubBillingService) CancelSubscription(_ context.Context, identity *auth.Identity) (*models.Profile, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &models.Profile{UserID: identity.UserID, SubscriptionStatus: models.SubscriptionActive}, nil
}

func (s *stubBillingService) HandleWebhook(context.Context, []byte, string) error {
	return s.webhookErr
}

type stubs struct {
	listings    *stubListingService
	reviews     *stubReviewService
	submissions *stubSubmissionService
	favourites  *stubFavouriteService
	moderation  *stubModerationService
	billing     *stubBillingService
}

func newTestServer() (*Server, *stubs) {
	st := &stubs{
		listings:    &stubListingService{},
		reviews:     &stubReviewService{},
		submissions: &stubSubmissionService{},
		favourites:  &stubFavouriteService{},
		moderation:  &stubModerationService{},
		billing:     &stubBillingService{},
	}
	server := New(Services{
		Verifier:    testVerifier,
		Listings:    st.listings,
		Reviews:     st.reviews,
		Submissions: st.submissions,
		Profiles:    stubProfileService{},
		Favourites:  st.favourites,
		Moderation:  st.moderation,
		Billing:     st.billing,
	})
	return server, st
}

func doRequest(server *Server, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer()
	rec := doRequest(server, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestListListingsParsesQuery(t *testing.T) {
	server, st := newTestServer()
	st.listings.searchResponse = []*models.Listing{{ID: "a"}, {ID: "b"}}

	rec := doRequest(server, http.MethodGet, "/api/listings?ltype=hub&verified=true&location=Paris", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp listingsResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.Count != 2 || len(resp.Listings) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	q := st.listings.lastQuery
	if q.LType == nil || *q.LType != models.ListingTypeHub {
		t.Fatalf("expected hub type in query, got %+v", q.LType)
	}
	if q.Verified == nil || !*q.Verified {
		t.Fatalf("expected verified=true in query")
	}
	if q.Location != "Paris" {
		t.Fatalf("expected location Paris, got %q", q.Location)
	}
}

func TestListListingsEmptyIsArray(t *testing.T) {
	server, _ := newTestServer()
	rec := doRequest(server, http.MethodGet, "/api/listings", "", nil)
	if !strings.Contains(rec.Body.String(), `"listings":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestListListingsRejectsMalformedQuery(t *testing.T) {
	server, _ := newTestServer()
	rec := doRequest(server, http.MethodGet, "/api/listings?verified=maybe&near=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Success || resp.Fields["verified"] == "" || resp.Fields["near"] == "" {
		t.Fatalf("expected field errors, got %+v", resp)
	}
}

func TestCreateListingRequiresToken(t *testing.T) {
	server, st := newTestServer()
	rec := doRequest(server, http.MethodPost, "/api/listings", "", map[string]any{"title": "Hub"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if st.listings.lastCreated != nil {
		t.Fatalf("service must not be called without a token")
	}

	rec = doRequest(server, http.MethodPost, "/api/listings", "bogus", map[string]any{"title": "Hub"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid token, got %d", rec.Code)
	}
}

func TestCreateListingPassesIdentity(t *testing.T) {
	server, st := newTestServer()
	rec := doRequest(server, http.MethodPost, "/api/listings", "user-token", map[string]any{
		"title":        "Lisbon Hub",
		"ltype":        "hub",
		"is_permanent": true,
		"city":         "Lisbon",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if st.listings.lastCaller == nil || st.listings.lastCaller.UserID != "user-1" {
		t.Fatalf("expected caller identity to reach the service")
	}
	if st.listings.lastCreated.City != "Lisbon" {
		t.Fatalf("expected location to decode, got %+v", st.listings.lastCreated.Location)
	}

	var resp listingResponse
	decodeBody(t, rec, &resp)
	if resp.Listing.Verify != models.VerifyPending {
		t.Fatalf("expected pending listing, got %s", resp.Listing.Verify)
	}
}

func TestCreateListingValidationError(t *testing.T) {
	server, st := newTestServer()
	st.listings.createErr = store.NewValidationError(map[string]string{"title": "title must be at least 3 characters"})

	rec := doRequest(server, http.MethodPost, "/api/listings", "user-token", map[string]any{"title": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Fields["title"] == "" {
		t.Fatalf("expected title error, got %+v", resp)
	}
}

func TestCreateListingInvalidJSON(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetListingNotFound(t *testing.T) {
	server, st := newTestServer()
	st.listings.getErr = store.ErrListingNotFound

	rec := doRequest(server, http.MethodGet, "/api/listings/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateListingNotOwner(t *testing.T) {
	server, st := newTestServer()
	st.listings.updateErr = store.ErrNotOwner

	rec := doRequest(server, http.MethodPut, "/api/listings/listing-1", "user-token", map[string]any{"title": "New"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	server, st := newTestServer()
	st.listings.getErr = errors.New("pq: connection refused")

	rec := doRequest(server, http.MethodGet, "/api/listings/abc", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestReviewsEndpoints(t *testing.T) {
	server, st := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/reviews", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without listing_id, got %d", rec.Code)
	}

	rec = doRequest(server, http.MethodGet, "/api/reviews?listing_id=l-1", "", nil)
	if rec.Code != http.StatusOK || st.reviews.lastListingID != "l-1" {
		t.Fatalf("unexpected list response %d for %q", rec.Code, st.reviews.lastListingID)
	}
	if !strings.Contains(rec.Body.String(), `"has_rating":false`) {
		t.Fatalf("expected empty summary, got %s", rec.Body.String())
	}

	rec = doRequest(server, http.MethodGet, "/api/listings/l-2/reviews", "", nil)
	if rec.Code != http.StatusOK || st.reviews.lastListingID != "l-2" {
		t.Fatalf("unexpected alias response %d for %q", rec.Code, st.reviews.lastListingID)
	}

	rec = doRequest(server, http.MethodPost, "/api/reviews", "user-token", map[string]any{"listing_id": "l-1", "rating": 5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	st.reviews.createErr = store.ErrListingNotFound
	rec = doRequest(server, http.MethodPost, "/api/reviews", "user-token", map[string]any{"listing_id": "nope", "rating": 5})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitReportsStage(t *testing.T) {
	server, st := newTestServer()
	st.submissions.err = &store.ValidationError{
		Stage:  submission.StageDetails,
		Fields: map[string]string{"contactEmail": "Enter a valid email"},
	}

	rec := doRequest(server, http.MethodPost, "/api/submissions", "user-token", map[string]any{"title": "Hub"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Stage != submission.StageDetails || resp.Fields["contactEmail"] == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestProfileIsNotCached(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, http.MethodGet, "/api/profile", "user-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store, got %q", rec.Header().Get("Cache-Control"))
	}

	rec = doRequest(server, http.MethodPut, "/api/profile", "user-token", map[string]any{"display_name": "Ana"})
	var resp profileResponse
	decodeBody(t, rec, &resp)
	if resp.Profile.DisplayName != "Ana" {
		t.Fatalf("expected display name update, got %+v", resp.Profile)
	}
}

func TestFavouritesErrorMapping(t *testing.T) {
	server, st := newTestServer()

	st.favourites.addErr = favorites.ErrSupporterRequired
	rec := doRequest(server, http.MethodPost, "/api/favourites", "user-token", map[string]any{"listing_id": "l-1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	st.favourites.addErr = store.ErrFavouriteExists
	rec = doRequest(server, http.MethodPost, "/api/favourites", "user-token", map[string]any{"listing_id": "l-1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	st.favourites.addErr = nil
	rec = doRequest(server, http.MethodPost, "/api/favourites", "user-token", map[string]any{"listing_id": "l-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store on favourites")
	}
}

func TestRemoveFavouriteFromQuery(t *testing.T) {
	server, st := newTestServer()

	rec := doRequest(server, http.MethodDelete, "/api/favourites?listing_id=l-9", "user-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if st.favourites.lastID != "l-9" {
		t.Fatalf("expected listing id from query, got %q", st.favourites.lastID)
	}

	st.favourites.removeErr = store.ErrFavouriteNotFound
	rec = doRequest(server, http.MethodDelete, "/api/favourites", "user-token", map[string]any{"listing_id": "l-3"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if st.favourites.lastID != "l-3" {
		t.Fatalf("expected listing id from body, got %q", st.favourites.lastID)
	}
}

func TestAdminEndpoints(t *testing.T) {
	server, st := newTestServer()

	rec := doRequest(server, http.MethodPost, "/api/admin/check-role", "admin-token", nil)
	if !strings.Contains(rec.Body.String(), `"is_admin":true`) {
		t.Fatalf("expected admin role, got %s", rec.Body.String())
	}
	rec = doRequest(server, http.MethodPost, "/api/admin/check-role", "user-token", nil)
	if !strings.Contains(rec.Body.String(), `"is_admin":false`) {
		t.Fatalf("expected non-admin, got %s", rec.Body.String())
	}

	rec = doRequest(server, http.MethodGet, "/api/admin/pending", "user-token", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	st.moderation.applyErr = moderation.ErrUnknownAction
	rec = doRequest(server, http.MethodPost, "/api/admin/verify", "admin-token", map[string]any{"listing_id": "l-1", "action": "delete"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	st.moderation.applyErr = moderation.ErrInvalidTransition
	rec = doRequest(server, http.MethodPost, "/api/admin/verify", "admin-token", map[string]any{"listing_id": "l-1", "action": "verify"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestStripeEndpoints(t *testing.T) {
	server, st := newTestServer()

	rec := doRequest(server, http.MethodPost, "/api/stripe/create-checkout", "user-token", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"session_id":"cs_test"`) {
		t.Fatalf("unexpected checkout response %d %s", rec.Code, rec.Body.String())
	}

	st.billing.cancelErr = billing.ErrNoSubscription
	rec = doRequest(server, http.MethodPost, "/api/stripe/cancel-subscription", "user-token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	st.billing.webhookErr = billing.ErrInvalidSignature
	rec = doRequest(server, http.MethodPost, "/api/stripe/webhook", "", map[string]any{"type": "ping"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	st.billing.webhookErr = billing.ErrNotConfigured
	rec = doRequest(server, http.MethodPost, "/api/stripe/webhook", "", map[string]any{"type": "ping"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUploadsDisabledWithoutStorage(t *testing.T) {
	server, _ := newTestServer()
	rec := doRequest(server, http.MethodPost, "/api/uploads/photos", "user-token", map[string]any{
		"filename":     "a.png",
		"content_type": "image/png",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

type stubUploader struct{}

func (stubUploader) PresignPhoto(_ context.Context, userID, _, contentType string) (*storage.Upload, error) {
	if contentType != "image/png" {
		return nil, storage.ErrUnsupportedType
	}
	return &storage.Upload{ObjectKey: "listings/" + userID + "/x.png"}, nil
}

func TestUploadsPresign(t *testing.T) {
	server, _ := newTestServer()
	server.uploads = stubUploader{}

	rec := doRequest(server, http.MethodPost, "/api/uploads/photos", "user-token", map[string]any{
		"filename":     "a.png",
		"content_type": "image/png",
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "listings/user-1/x.png") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(server, http.MethodPost, "/api/uploads/photos", "user-token", map[string]any{
		"filename":     "a.pdf",
		"content_type": "application/pdf",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
