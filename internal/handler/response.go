package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so all responses share
// one shape. Errors always look like:
//
//	{"error": "not_found", "message": "recipe not found with id 7"}
//
// with an optional "field" naming the offending input for validation errors.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/recipe-share/internal/apperror"
	"github.com/sakif/recipe-share/internal/auth"
	"github.com/sakif/recipe-share/internal/model"
)

// maxJSONBody caps request bodies that are decoded as JSON.
const maxJSONBody = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // input field at fault, if any
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
//	ErrValidation      → 400
//	ErrUnauthenticated → 401
//	ErrForbidden       → 403
//	ErrNotFound        → 404
//	ErrConflict        → 409
//	anything else      → 500 with a generic message
//
// errors.Is walks the Unwrap chain, so wrapped AppErrors map the same way.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Never leak internal details such as SQL or file paths.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		status, kind = http.StatusUnauthorized, "unauthenticated"
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, apperror.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// logFailure logs errors that end up as 500s; domain errors are expected
// outcomes and stay out of the error log.
func logFailure(logger *slog.Logger, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return
	}
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// decodeJSON reads a JSON body into dst, rejecting oversized or malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return nil
}

// pathID parses the named chi URL parameter as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

// paging reads ?skip=&limit=. A missing limit is 0, which the services turn
// into their own default.
func paging(r *http.Request) (offset, limit int, err error) {
	if offset, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// currentUser returns the user the auth middleware attached to the request.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthenticated("could not validate credentials")
	}
	return user, nil
}
