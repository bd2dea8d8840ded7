package httpapi

import (
	"net/http"
	"strings"

	"wanderlink/internal/app/listings"
	"wanderlink/internal/app/submission"
	"wanderlink/internal/models"
)

type listingsResponse struct {
	Success  bool              `json:"success"`
	Listings []*models.Listing `json:"listings"`
	Count    int               `json:"count"`
}

type listingResponse struct {
	Success bool            `json:"success"`
	Listing *models.Listing `json:"listing"`
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q, err := listings.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	found, err := s.listings.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if found == nil {
		found = []*models.Listing{}
	}

	writeJSON(w, http.StatusOK, listingsResponse{Success: true, Listings: found, Count: len(found)})
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var listing models.Listing
	if err := decodeJSON(w, r, &listing); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}

	created, err := s.listings.Create(r.Context(), identity, &listing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.countListingCreated()

	writeJSON(w, http.StatusCreated, listingResponse{Success: true, Listing: created})
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{Success: true, Listing: listing})
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var listing models.Listing
	if err := decodeJSON(w, r, &listing); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}

	updated, err := s.listings.Update(r.Context(), identity, r.PathValue("id"), &listing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{Success: true, Listing: updated})
}

// handleSubmit runs both submission stages before creating the listing.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var form submission.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}

	created, err := s.submissions.Submit(r.Context(), identity, &form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.countListingCreated()

	writeJSON(w, http.StatusCreated, listingResponse{Success: true, Listing: created})
}

func (s *Server) countListingCreated() {
	if s.metrics != nil {
		s.metrics.ListingsCreated.Inc()
	}
}

func listingIDFrom(r *http.Request, body string) string {
	if id := strings.TrimSpace(body); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("listing_id"))
}

func requireListingID(w http.ResponseWriter, id string) bool {
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"listing_id": "listing_id is required"},
		})
		return false
	}
	return true
}

