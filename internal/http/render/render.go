// Package render writes JSON responses and maps workflow errors to HTTP
// status codes.
package render

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its kind maps to.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *apperr.ValidationError
		notFound     *apperr.NotFoundError
		transition   *apperr.InvalidStateTransitionError
		insufficient *apperr.InsufficientFundsError
		conflict     *apperr.ConcurrencyConflictError
	)

	switch {
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, errorResponse{Error: "validation_error", Message: validation.Message, Field: validation.Field})
	case errors.As(err, &notFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: notFound.Error()})
	case errors.As(err, &transition):
		slog.Warn("invalid state transition requested",
			"method", r.Method, "path", r.URL.Path, "entity", transition.Entity,
			"action", transition.Action, "from", transition.From)
		JSON(w, http.StatusConflict, errorResponse{Error: "invalid_state_transition", Message: transition.Error()})
	case errors.As(err, &insufficient):
		JSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "insufficient_funds", Message: insufficient.Error()})
	case errors.As(err, &conflict):
		JSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: conflict.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal error"})
	}
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("body", "invalid request body: %v", err)
	}

	return nil
}

// ID parses the named URL parameter as a UUID.
func ID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name, "invalid id %q", chi.URLParam(r, name))
	}

	return id, nil
}

// QueryID parses an optional UUID query parameter.
func QueryID(r *http.Request, name string) (*uuid.UUID, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Validation(name, "invalid id %q", s)
	}

	return &id, nil
}
