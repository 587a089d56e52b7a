package session

import "context"

// Store persists the current session in a single durable slot, plus an
// independent bearer-token slot used by the remote provider.
//
// Concurrency: one logical slot; concurrent saves from independent client
// contexts are last-write-wins with no cross-context locking.
type Store interface {
	// Save persists the session, overwriting any prior value.
	Save(ctx context.Context, s *Session) error

	// Load returns the persisted session, or nil if the slot is empty.
	// A session whose expiry has passed is cleared from the slot and
	// reported as absent; expired sessions never resurface.
	Load(ctx context.Context) (*Session, error)

	// Clear removes the persisted session unconditionally. Idempotent.
	Clear(ctx context.Context) error

	// SaveToken persists the bearer token independently of the session.
	SaveToken(ctx context.Context, token string) error

	// LoadToken returns the persisted bearer token, or "" if absent.
	LoadToken(ctx context.Context) (string, error)

	// ClearToken removes the persisted bearer token. Idempotent.
	ClearToken(ctx context.Context) error
}
