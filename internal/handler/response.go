// Package handler is the HTTP edge: it parses requests, enforces the
// patch allow-lists, delegates to the services, and renders JSON.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mlanden/task-manager/internal/apperror"
)

// ErrorResponse is the single error shape every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the first body byte.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a service error into an HTTP response. This is the
// only place the error taxonomy meets status codes; the services never see
// HTTP. Unknown errors collapse into a generic 500 so internal details
// (queries, file paths) never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrAuthentication):
			status = http.StatusUnauthorized
			errorType = "authentication_failed"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeAllowListed decodes a JSON object while rejecting any key outside
// allowed. Patch endpoints use this so a request trying to set a protected
// field (owner, id, tokens) fails loudly instead of being silently dropped.
func decodeAllowListed(r *http.Request, allowed map[string]bool) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, apperror.ValidationFailed("body", "request body must be a JSON object")
	}
	for key := range fields {
		if !allowed[key] {
			return nil, apperror.ValidationFailed(key, "invalid update field: "+key)
		}
	}
	return fields, nil
}
