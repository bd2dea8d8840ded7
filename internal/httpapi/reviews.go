package httpapi

import (
	"net/http"

	"wanderlink/internal/app/reviews"
	"wanderlink/internal/models"
)

type reviewsResponse struct {
	Success bool             `json:"success"`
	Reviews []*models.Review `json:"reviews"`
	Summary reviews.Summary  `json:"summary"`
}

type reviewRequest struct {
	ListingID string `json:"listing_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id := listingIDFrom(r, "")
	if !requireListingID(w, id) {
		return
	}
	s.writeReviews(w, r, id)
}

func (s *Server) handleListingReviews(w http.ResponseWriter, r *http.Request) {
	s.writeReviews(w, r, r.PathValue("id"))
}

func (s *Server) writeReviews(w http.ResponseWriter, r *http.Request, listingID string) {
	found, summary, err := s.reviews.List(r.Context(), listingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if found == nil {
		found = []*models.Review{}
	}
	writeJSON(w, http.StatusOK, reviewsResponse{Success: true, Reviews: found, Summary: summary})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}
	if !requireListingID(w, req.ListingID) {
		return
	}

	created, err := s.reviews.Create(r.Context(), identity, &models.Review{
		ListingID: req.ListingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success bool           `json:"success"`
		Review  *models.Review `json:"review"`
	}{Success: true, Review: created})
}
