package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"collab-go/app/errs"
	"collab-go/app/middleware"
	"collab-go/app/models"
)

// maxBodyBytes bounds request bodies; task threads are the largest payloads.
const maxBodyBytes = 8 << 20

type detail struct {
	Detail string `json:"detail"`
}

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{"Invalid request payload"})
		return false
	}
	return true
}

// writeError maps error kinds to status codes. Unknown errors are logged and
// reported without their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, errs.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, detail{"Internal server error"})
		return
	}
	writeJSON(w, status, detail{err.Error()})
}

// currentUser returns the authenticated user, writing a 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, r, errs.Detail(errs.ErrUnauthorized, "Not authenticated"))
	}
	return u, ok
}
