// Package httpapi exposes the auth service over the REST surface consumed by
// the remote provider: login, register, logout, me, refresh, plus profile and
// avatar maintenance. Failures carry an {error: string} body.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/webstarter/authkit/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps sentinel errors to HTTP statuses. Login failures
// collapse to one message so responses do not reveal whether the email or
// the password was wrong.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "user with this email already exists")
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrInvalidSecret):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
