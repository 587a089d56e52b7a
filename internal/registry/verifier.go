package registry

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/webstarter/authkit/internal/common"
)

// Verifier checks login attempts against a Registry. It is the only
// component that touches credential hashes. Secrets are hashed with bcrypt;
// its comparison is effectively constant-time, so the verifier does not leak
// which of "unknown email" and "wrong password" occurred through timing of
// the hash check itself.
type Verifier struct {
	reg Registry
}

func NewVerifier(reg Registry) *Verifier {
	return &Verifier{reg: reg}
}

// Register creates a new identity with the given secret. The email is
// normalized to lower case before storage; a duplicate registration fails
// with common.ErrAlreadyExists regardless of the secret.
func (v *Verifier) Register(ctx context.Context, email, secret, name string) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	identity := &Identity{
		Email: NormalizeEmail(email),
		Name:  name,
		Role:  RoleUser,
	}
	return v.reg.Create(ctx, identity, string(hash))
}

// Verify returns the identity matching email and secret. It fails with
// common.ErrNotFound when no identity matches the email and with
// common.ErrInvalidSecret when the secret does not match.
func (v *Verifier) Verify(ctx context.Context, email, secret string) (*Identity, error) {
	identity, err := v.reg.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	hash, err := v.reg.secretHash(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return nil, common.ErrInvalidSecret
	}
	return identity, nil
}

// ChangeSecret replaces the stored secret after verifying the current one.
func (v *Verifier) ChangeSecret(ctx context.Context, identityID, currentSecret, newSecret string) error {
	hash, err := v.reg.secretHash(ctx, identityID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentSecret)) != nil {
		return common.ErrInvalidSecret
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return v.reg.setSecretHash(ctx, identityID, string(newHash))
}

// SeedDemoUsers registers the demo accounts used by the mock provider.
// Existing accounts are left alone, so seeding is idempotent.
func SeedDemoUsers(ctx context.Context, v *Verifier) error {
	demo := []struct {
		email, secret, name string
		role                Role
	}{
		{"admin@example.com", "admin123", "Admin User", RoleAdmin},
		{"user@example.com", "user123", "Regular User", RoleUser},
	}

	for _, d := range demo {
		identity, err := v.Register(ctx, d.email, d.secret, d.name)
		if errors.Is(err, common.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding %s: %w", d.email, err)
		}
		if d.role != RoleUser {
			role := d.role
			if _, err := v.reg.Update(ctx, identity.ID, Patch{Role: &role}); err != nil {
				return fmt.Errorf("seeding %s role: %w", d.email, err)
			}
		}
	}
	return nil
}
