package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"healthmate/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrSubscriptionExists),
		errors.Is(err, app.ErrSubscriptionActive),
		errors.Is(err, app.ErrUnhandledEvent),
		errors.Is(err, app.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrForbidden),
		errors.Is(err, app.ErrRefreshTokenRevoked):
		return http.StatusForbidden
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrRecordNotFound),
		errors.Is(err, app.ErrSubscriptionNotFound),
		errors.Is(err, app.ErrConversationNotFound),
		errors.Is(err, app.ErrNoPremium):
		return http.StatusNotFound
	case errors.Is(err, app.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, app.ErrPaymentIncomplete):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// replaced by a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		writeError(w, status, err)
		return
	}
	s.logger(r).Error("request failed", zap.Error(err))
	msg := "internal error"
	if errors.Is(err, app.ErrReportFailed) {
		msg = "Failed to report the problem."
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
