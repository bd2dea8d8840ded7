package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"wanderlink/internal/app/billing"
	"wanderlink/internal/app/favorites"
	"wanderlink/internal/app/listings"
	"wanderlink/internal/app/moderation"
	"wanderlink/internal/app/reviews"
	"wanderlink/internal/app/submission"
	"wanderlink/internal/auth"
	"wanderlink/internal/logging"
	"wanderlink/internal/metrics"
	"wanderlink/internal/models"
	"wanderlink/internal/storage"
	"wanderlink/internal/store"
)

// ListingService exposes listing browse and authoring workflows.
type ListingService interface {
	Create(ctx context.Context, identity *auth.Identity, listing *models.Listing) (*models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Search(ctx context.Context, q listings.Query) ([]*models.Listing, error)
	Update(ctx context.Context, identity *auth.Identity, id string, listing *models.Listing) (*models.Listing, error)
}

// ReviewService coordinates listing reviews.
type ReviewService interface {
	Create(ctx context.Context, identity *auth.Identity, review *models.Review) (*models.Review, error)
	List(ctx context.Context, listingID string) ([]*models.Review, reviews.Summary, error)
}

// SubmissionService runs the two-stage submission workflow.
type SubmissionService interface {
	Submit(ctx context.Context, identity *auth.Identity, form *submission.Form) (*models.Listing, error)
}

// ProfileService reads and edits the caller's profile.
type ProfileService interface {
	Get(ctx context.Context, identity *auth.Identity) (*models.Profile, error)
	Update(ctx context.Context, identity *auth.Identity, update models.ProfileUpdate) (*models.Profile, error)
}

// FavouriteService coordinates supporter favourites.
type FavouriteService interface {
	Add(ctx context.Context, identity *auth.Identity, listingID string) (*models.Favourite, error)
	Remove(ctx context.Context, identity *auth.Identity, listingID string) error
	List(ctx context.Context, identity *auth.Identity) ([]*models.Favourite, error)
}

// ModerationService exposes admin verification workflows.
type ModerationService interface {
	CheckRole(ctx context.Context, identity *auth.Identity) (bool, error)
	ListPending(ctx context.Context, identity *auth.Identity) ([]*models.Listing, error)
	Apply(ctx context.Context, identity *auth.Identity, id, action string) (*models.Listing, error)
}

// BillingService drives the supporter subscription.
type BillingService interface {
	CreateCheckout(ctx context.Context, identity *auth.Identity) (*billing.CheckoutSession, error)
	CancelSubscription(ctx context.Context, identity *auth.Identity) (*models.Profile, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// PhotoUploader issues presigned photo upload URLs.
type PhotoUploader interface {
	PresignPhoto(ctx context.Context, userID, filename, contentType string) (*storage.Upload, error)
}

// Services groups the collaborators the handlers call into. Uploads and
// Metrics may be nil.
type Services struct {
	Verifier    auth.Verifier
	Listings    ListingService
	Reviews     ReviewService
	Submissions SubmissionService
	Profiles    ProfileService
	Favourites  FavouriteService
	Moderation  ModerationService
	Billing     BillingService
	Uploads     PhotoUploader
	Metrics     *metrics.Metrics
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	verifier    auth.Verifier
	listings    ListingService
	reviews     ReviewService
	submissions SubmissionService
	profiles    ProfileService
	favourites  FavouriteService
	moderation  ModerationService
	billing     BillingService
	uploads     PhotoUploader
	metrics     *metrics.Metrics
}

// New configures a Server from its collaborators.
func New(deps Services) *Server {
	return &Server{
		verifier:    deps.Verifier,
		listings:    deps.Listings,
		reviews:     deps.Reviews,
		submissions: deps.Submissions,
		profiles:    deps.Profiles,
		favourites:  deps.Favourites,
		moderation:  deps.Moderation,
		billing:     deps.Billing,
		uploads:     deps.Uploads,
		metrics:     deps.Metrics,
	}
}

// Routes exposes the API handlers.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /api/listings", s.handleListListings)
	mux.HandleFunc("POST /api/listings", s.handleCreateListing)
	mux.HandleFunc("GET /api/listings/{id}", s.handleGetListing)
	mux.HandleFunc("PUT /api/listings/{id}", s.handleUpdateListing)
	mux.HandleFunc("GET /api/listings/{id}/reviews", s.handleListingReviews)

	mux.HandleFunc("GET /api/reviews", s.handleListReviews)
	mux.HandleFunc("POST /api/reviews", s.handleCreateReview)

	mux.HandleFunc("POST /api/submissions", s.handleSubmit)

	mux.HandleFunc("GET /api/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/profile", s.handleUpdateProfile)

	mux.HandleFunc("GET /api/favourites", s.handleListFavourites)
	mux.HandleFunc("POST /api/favourites", s.handleAddFavourite)
	mux.HandleFunc("DELETE /api/favourites", s.handleRemoveFavourite)

	mux.HandleFunc("POST /api/admin/check-role", s.handleCheckRole)
	mux.HandleFunc("GET /api/admin/pending", s.handlePending)
	mux.HandleFunc("POST /api/admin/verify", s.handleVerify)

	mux.HandleFunc("POST /api/stripe/create-checkout", s.handleCreateCheckout)
	mux.HandleFunc("POST /api/stripe/cancel-subscription", s.handleCancelSubscription)
	mux.HandleFunc("POST /api/stripe/webhook", s.handleStripeWebhook)

	mux.HandleFunc("POST /api/uploads/photos", s.handlePresignPhoto)

	return mux
}

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Stage   string            `json:"stage,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// authenticate resolves the bearer token into an identity and tags the
// request context with the user id for logging.
func (s *Server) authenticate(r *http.Request) (*auth.Identity, *http.Request, error) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return nil, r, auth.ErrUnauthenticated
	}
	identity, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, r, err
	}
	ctx := logging.WithUserID(r.Context(), identity.UserID)
	return identity, r.WithContext(ctx), nil
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *store.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Stage:  validation.Stage,
			Fields: validation.Fields,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, favorites.ErrSupporterRequired),
		errors.Is(err, store.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrListingNotFound),
		errors.Is(err, store.ErrFavouriteNotFound),
		errors.Is(err, store.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrFavouriteExists),
		errors.Is(err, store.ErrProfileExists),
		errors.Is(err, moderation.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, moderation.ErrUnknownAction),
		errors.Is(err, billing.ErrNoSubscription),
		errors.Is(err, billing.ErrInvalidSignature),
		errors.Is(err, storage.ErrUnsupportedType):
		status = http.StatusBadRequest
	case errors.Is(err, billing.ErrNotConfigured),
		errors.Is(err, storage.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		message = "internal server error"
	} else if status == http.StatusUnauthorized {
		message = auth.ErrUnauthenticated.Error()
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
