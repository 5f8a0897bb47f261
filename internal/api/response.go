package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lvoinea/stuffkeeper/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"detail": message})
}

// unauthorized writes a 401 with the bearer challenge header.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	jsonError(w, http.StatusUnauthorized, message)
}

// storeError translates the store error taxonomy: ErrNotFound to 404,
// ErrConflict to 422, anything else to a logged 500.
func storeError(w http.ResponseWriter, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusUnprocessableEntity, conflictMsg)
	default:
		slog.Error("store operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
