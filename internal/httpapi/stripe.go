package httpapi

import (
	"errors"
	"io"
	"net/http"

	"wanderlink/internal/app/billing"
)

const maxWebhookBytes = 256 << 10

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := s.billing.CreateCheckout(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		URL       string `json:"url"`
		SessionID string `json:"session_id"`
	}{Success: true, URL: session.URL, SessionID: session.ID})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	identity, r, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := s.billing.CancelSubscription(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Success: true, Profile: profile})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeBadRequest(w, "unable to read webhook payload")
		return
	}

	err = s.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	s.countWebhook(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Received bool `json:"received"`
	}{Received: true})
}

func (s *Server) countWebhook(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "processed"
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		outcome = "invalid_signature"
	case err != nil:
		outcome = "failed"
	}
	s.metrics.WebhookEvents.WithLabelValues(outcome).Inc()
}
