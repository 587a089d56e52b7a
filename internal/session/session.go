// Package session defines the authenticated session model and the durable
// client-side store that holds at most one session per client context.
package session

import (
	"time"

	"github.com/webstarter/authkit/internal/registry"
)

// Session is the live authenticated context issued after a successful
// login, register, or refresh. It owns a copy of the identity so reads do
// not require the registry.
type Session struct {
	User         registry.Identity `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time         `json:"expiresAt"`
}

// Expired reports whether the session's expiry instant has been reached.
// A session expiring exactly at now is already expired.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
