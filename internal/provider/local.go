package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
	"github.com/webstarter/authkit/internal/token"
)

// Local is the self-contained provider variant: credential verification,
// token issuance, and session persistence all happen in-process, with no
// network involved.
type Local struct {
	reg      registry.Registry
	verifier *registry.Verifier
	codec    *token.Codec
	store    session.Store
	ttl      time.Duration
	logger   logging.Logger
	now      func() time.Time
}

// NewLocal wires a local provider over the given registry, codec, and store.
func NewLocal(reg registry.Registry, codec *token.Codec, store session.Store, logger logging.Logger) *Local {
	return &Local{
		reg:      reg,
		verifier: registry.NewVerifier(reg),
		codec:    codec,
		store:    store,
		ttl:      DefaultSessionTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// WithTTL overrides the session lifetime and returns the provider.
func (l *Local) WithTTL(ttl time.Duration) *Local {
	l.ttl = ttl
	return l
}

// WithClock replaces the provider's clock and returns the provider.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

// Verifier exposes the provider's credential verifier, e.g. for seeding
// demo users.
func (l *Local) Verifier() *registry.Verifier {
	return l.verifier
}

func (l *Local) newSession(ctx context.Context, identity *registry.Identity) (*session.Session, error) {
	access, err := l.codec.Issue(identity.ID, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	s := &session.Session{
		User:         *identity,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    l.now().Add(l.ttl),
	}
	if err := l.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

func (l *Local) Login(ctx context.Context, email, password string) (*session.Session, error) {
	identity, err := l.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return l.newSession(ctx, identity)
}

func (l *Local) Register(ctx context.Context, email, password, name string) (*session.Session, error) {
	identity, err := l.verifier.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return l.newSession(ctx, identity)
}

func (l *Local) Logout(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		l.logger.Warn(ctx, "clearing session on logout failed", "error", err)
	}
	return nil
}

func (l *Local) GetSession(ctx context.Context) (*session.Session, error) {
	s, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	subject, err := l.codec.Decode(s.AccessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			// Self-healing: a stale token never resurfaces on a read path.
			if clearErr := l.store.Clear(ctx); clearErr != nil {
				return nil, clearErr
			}
			return nil, nil
		}
		return nil, err
	}
	if subject != s.User.ID {
		if err := l.store.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s, nil
}

func (l *Local) GetCurrentUser(ctx context.Context) (*registry.Identity, error) {
	s, err := l.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return &s.User, nil
}

func (l *Local) RefreshSession(ctx context.Context) (*session.Session, error) {
	s, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, common.ErrNotAuthenticated
	}

	// Re-read the identity so a refresh picks up profile changes.
	identity, err := l.reg.GetByID(ctx, s.User.ID)
	if err != nil {
		return nil, err
	}
	return l.newSession(ctx, identity)
}

func (l *Local) UpdateUser(ctx context.Context, p registry.Patch) (*registry.Identity, error) {
	s, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, common.ErrNotAuthenticated
	}

	identity, err := l.reg.Update(ctx, s.User.ID, p)
	if err != nil {
		return nil, err
	}

	s.User = *identity
	if err := l.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return identity, nil
}

func (l *Local) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	s, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return common.ErrNotAuthenticated
	}
	return l.verifier.ChangeSecret(ctx, s.User.ID, currentPassword, newPassword)
}

func (l *Local) ResetPassword(ctx context.Context, email string) error {
	identity, err := l.reg.GetByEmail(ctx, registry.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Unknown emails get the same answer as known ones.
			return nil
		}
		return err
	}

	// Mail delivery is out of scope; the reset is only logged.
	l.logger.Info(ctx, "password reset requested", "user_id", identity.ID)
	return nil
}
