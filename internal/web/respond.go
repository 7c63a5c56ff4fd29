// Package web holds the JSON request/response helpers shared by handlers.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ayush/lms-accounts/backend/internal/apperr"
)

const maxJSONBody = 1 << 20

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err into the error taxonomy and writes it. Internal errors
// are logged with their cause; clients only see the generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.Internal {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	WriteJSON(w, ae.Status(), map[string]any{
		"success":    false,
		"statusCode": ae.Status(),
		"message":    ae.Message,
	})
}

// DecodeJSON reads a JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}
