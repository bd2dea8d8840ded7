package httpapi

import (
	"net/http"

	"wanderlink/internal/models"
)

type verifyRequest struct {
	ListingID string `json:"listing_id"`
	Action    string `json:"action"`
}

func (s *Server) handleCheckRole(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	isAdmin, err := s.moderation.CheckRole(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		IsAdmin bool `json:"is_admin"`
	}{Success: true, IsAdmin: isAdmin})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pending, err := s.moderation.ListPending(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pending == nil {
		pending = []*models.Listing{}
	}
	writeJSON(w, http.StatusOK, listingsResponse{Success: true, Listings: pending, Count: len(pending)})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}
	if !requireListingID(w, req.ListingID) {
		return
	}

	listing, err := s.moderation.Apply(r.Context(), identity, req.ListingID, req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ModerationDecisions.WithLabelValues(req.Action).Inc()
	}

	writeJSON(w, http.StatusOK, listingResponse{Success: true, Listing: listing})
}
