package registry

import (
	"context"
	"strings"
)

// Registry persists identities and their credential records. The secret hash
// never leaves this package: only the Verifier reads or writes it.
type Registry interface {
	// Create inserts a new identity with its secret hash. Returns
	// common.ErrAlreadyExists if the email is already registered
	// (case-insensitive).
	Create(ctx context.Context, identity *Identity, secretHash string) (*Identity, error)

	// GetByEmail returns the identity for the normalized email, or
	// common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// GetByID returns the identity by id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Identity, error)

	// Update applies the patch to the identity and returns the updated
	// record, or common.ErrNotFound.
	Update(ctx context.Context, id string, p Patch) (*Identity, error)

	// secretHash returns the stored credential hash for the identity.
	secretHash(ctx context.Context, id string) (string, error)

	// setSecretHash replaces the stored credential hash.
	setSecretHash(ctx context.Context, id string, hash string) error
}

// NormalizeEmail lowercases the email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
