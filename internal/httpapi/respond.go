// Package httpapi exposes the tracker over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/citelens/citelens/internal/apperrors"
)

func sendJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func sendError(w http.ResponseWriter, msg string, code int) {
	sendJSON(w, code, map[string]string{"error": msg})
}

// sendAppError maps the error taxonomy onto HTTP status codes.
func sendAppError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		sendError(w, err.Error(), http.StatusBadRequest)
	case apperrors.IsNotFound(err):
		sendError(w, err.Error(), http.StatusNotFound)
	case apperrors.IsForbidden(err):
		sendError(w, err.Error(), http.StatusForbidden)
	case apperrors.IsUpstream(err):
		sendError(w, err.Error(), http.StatusBadGateway)
	default:
		sendError(w, "internal error", http.StatusInternalServerError)
	}
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	return id, err == nil
}
