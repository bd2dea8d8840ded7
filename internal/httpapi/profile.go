package httpapi

import (
	"errors"
	"io"
	"net/http"

	"wanderlink/internal/models"
)

type profileResponse struct {
	Success bool            `json:"success"`
	Profile *models.Profile `json:"profile"`
}

type favouriteRequest struct {
	ListingID string `json:"listing_id"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := s.profiles.Get(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Success: true, Profile: profile})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var update models.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}

	profile, err := s.profiles.Update(r.Context(), identity, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Success: true, Profile: profile})
}

func (s *Server) handleListFavourites(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	favs, err := s.favourites.List(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if favs == nil {
		favs = []*models.Favourite{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success    bool                `json:"success"`
		Favourites []*models.Favourite `json:"favourites"`
	}{Success: true, Favourites: favs})
}

func (s *Server) handleAddFavourite(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req favouriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}
	if !requireListingID(w, req.ListingID) {
		return
	}

	fav, err := s.favourites.Add(r.Context(), identity, req.ListingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success   bool              `json:"success"`
		Favourite *models.Favourite `json:"favourite"`
	}{Success: true, Favourite: fav})
}

// handleRemoveFavourite accepts listing_id in the JSON body or the query string.
func (s *Server) handleRemoveFavourite(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req favouriteRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON payload")
		return
	}
	id := listingIDFrom(r, req.ListingID)
	if !requireListingID(w, id) {
		return
	}

	if err := s.favourites.Remove(r.Context(), identity, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
