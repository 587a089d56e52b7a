// Package provider defines the swappable authentication backend. Call sites
// are variant-agnostic: the local variant composes the verifier, token codec,
// and session store in-process, while the remote variant maps every
// operation onto one request against the auth REST API.
package provider

import (
	"context"
	"time"

	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
)

// DefaultSessionTTL is how long issued sessions stay valid.
const DefaultSessionTTL = 24 * time.Hour

// AuthProvider is the capability set shared by both variants.
//
// Read paths (GetSession, GetCurrentUser) self-heal: an expired or invalid
// session is silently cleared and reported as absent. Explicit actions
// (RefreshSession and the authenticated mutations) fail with
// common.ErrNotAuthenticated instead.
type AuthProvider interface {
	// Login verifies credentials and establishes a new session.
	Login(ctx context.Context, email, password string) (*session.Session, error)

	// Register creates a new identity, then behaves like Login.
	Register(ctx context.Context, email, password, name string) (*session.Session, error)

	// Logout destroys the current session. Best-effort: it never fails,
	// even when no session exists.
	Logout(ctx context.Context) error

	// GetSession returns the current valid session, or nil if none exists.
	GetSession(ctx context.Context) (*session.Session, error)

	// GetCurrentUser returns the identity of the current session, or nil.
	GetCurrentUser(ctx context.Context) (*registry.Identity, error)

	// RefreshSession re-issues the session token with a fresh TTL.
	RefreshSession(ctx context.Context) (*session.Session, error)

	// UpdateUser applies a profile patch to the current identity.
	UpdateUser(ctx context.Context, p registry.Patch) (*registry.Identity, error)

	// ChangePassword replaces the current identity's secret.
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error

	// ResetPassword starts a password reset. It never reveals whether the
	// email is registered.
	ResetPassword(ctx context.Context, email string) error
}
