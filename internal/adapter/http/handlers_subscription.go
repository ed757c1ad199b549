package adapthttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxWebhookBytes = 64 << 10

func (s *Server) handleSubscriptionInitialize(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Subscriptions.Initialize(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Subscriptions.Checkout(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sess.ID, "url": sess.URL})
}

// handleWebhook needs the raw body for signature verification.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	sub, err := s.svc.Subscriptions.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "subscription": sub})
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return "", false
	}
	return id, true
}

func (s *Server) handleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sub, err := s.svc.Subscriptions.ConfirmCheckout(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Payment successful. Premium subscription activated.",
		"subscription": sub,
	})
}

func (s *Server) handleCheckoutCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Subscriptions.CancelCheckout(r.Context(), currentUser(r).ID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Payment was canceled.")
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Subscriptions.Renew(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionDetails(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Subscriptions.Details(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
