package httpapi

import (
	"net/http"

	"wanderlink/internal/storage"
)

type photoUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (s *Server) handlePresignPhoto(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.uploads == nil {
		writeError(w, r, storage.ErrNotConfigured)
		return
	}

	var req photoUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON payload")
		return
	}

	upload, err := s.uploads.PresignPhoto(r.Context(), identity.UserID, req.Filename, req.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Upload  *storage.Upload `json:"upload"`
	}{Success: true, Upload: upload})
}
