package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/notify"
	"github.com/terra-clan/skillhub/internal/skills"
)

const maxBodyBytes = 1 << 20

// Error codes
const (
	codeValidation      = "validation_error"
	codeInvalidRequest  = "invalid_request"
	codeUnauthenticated = "unauthenticated"
	codeForbidden       = "forbidden"
	codeNotFound        = "not_found"
	codeNotConfigured   = "not_configured"
	codeNotReady        = "not_ready"
	codeInternal        = "internal_error"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, apiErr *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error:   apiErr,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondLocalizedError writes an error whose message is looked up in the caller's locale
func respondLocalizedError(w http.ResponseWriter, r *http.Request, bundle *i18n.Bundle, status int, code, key string) {
	respondError(w, status, &apiError{Code: code, Message: translate(r, bundle, key)})
}

func translate(r *http.Request, bundle *i18n.Bundle, key string, args ...any) string {
	if bundle == nil {
		return key
	}
	return bundle.Translatef(i18n.FromContext(r.Context()), key, args...)
}

// respondServiceError maps a service error onto the envelope. Unexpected errors are logged
// with the given attributes and reported generically.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error, msg string, attrs ...any) {
	var verr *skills.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, &apiError{
			Code:    codeValidation,
			Message: translate(r, s.bundle, "error.validation") + ": " + verr.Error(),
			Field:   verr.Field,
		})
	case errors.Is(err, skills.ErrValidation), errors.Is(err, notify.ErrInvalidInquiry):
		respondError(w, http.StatusBadRequest, &apiError{
			Code:    codeValidation,
			Message: translate(r, s.bundle, "error.validation") + ": " + err.Error(),
		})
	case errors.Is(err, skills.ErrUnauthenticated):
		respondLocalizedError(w, r, s.bundle, http.StatusUnauthorized, codeUnauthenticated, "error.unauthenticated")
	case errors.Is(err, skills.ErrForbidden):
		respondLocalizedError(w, r, s.bundle, http.StatusForbidden, codeForbidden, "error.forbidden")
	case errors.Is(err, skills.ErrNotFound):
		respondLocalizedError(w, r, s.bundle, http.StatusNotFound, codeNotFound, "error.not_found")
	case errors.Is(err, notify.ErrNotConfigured):
		respondLocalizedError(w, r, s.bundle, http.StatusServiceUnavailable, codeNotConfigured, "error.not_configured")
	default:
		slog.Error(msg, append(attrs, "error", err, "request_id", requestID(r))...)
		key := "error.internal"
		var derr *notify.DeliveryError
		if errors.As(err, &derr) {
			key = "error.delivery"
		}
		respondLocalizedError(w, r, s.bundle, http.StatusInternalServerError, codeInternal, key)
	}
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := translate(r, s.bundle, "error.invalid_body")
		if !errors.Is(err, io.EOF) {
			msg += ": " + err.Error()
		}
		respondError(w, http.StatusBadRequest, &apiError{Code: codeInvalidRequest, Message: msg})
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, &apiError{Code: codeNotReady, Message: "service not ready"})
		return
	}

	// Inquiry channels are optional; a failing one degrades readiness without failing it
	status := "ready"
	channels := make(map[string]string)
	for name, err := range s.inquiries.HealthCheck(r.Context()) {
		if err != nil {
			slog.Warn("inquiry channel unhealthy", "sink", name, "error", err)
			channels[name] = err.Error()
			status = "degraded"
			continue
		}
		channels[name] = "ok"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"inquiry_channels": channels,
	})
}
