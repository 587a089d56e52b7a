// Package services contains server-side business logic. This file implements
// AuthService: registration, login, bearer-token authentication, session
// rotation, and account maintenance.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/dbx"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/server/config"
	"github.com/webstarter/authkit/internal/server/models"
	"github.com/webstarter/authkit/internal/server/repositories/sessions"
	"github.com/webstarter/authkit/internal/server/storage"
	"github.com/webstarter/authkit/internal/token"
)

// AuthService issues bearer tokens backed by server-stored session rows.
// A token is valid only while both its signature/expiry check out and its
// hashed session row exists; logout and rotation work by deleting rows.
type AuthService struct {
	storage    storage.Manager
	verifier   *registry.Verifier
	codec      *token.Codec
	sessionTTL time.Duration
	logger     logging.Logger
}

func NewAuthService(m storage.Manager, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		storage:    m,
		verifier:   registry.NewVerifier(m.Registry()),
		codec:      token.NewCodec([]byte(cfg.SecretKey)),
		sessionTTL: cfg.SessionTTL,
		logger:     logger,
	}
}

// hashToken derives the storage key for a bearer token. Only the hash is
// persisted.
func hashToken(bearer string) string {
	sum := sha256.Sum256([]byte(bearer))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) issueSession(ctx context.Context, repo sessions.Repository, userID string) (string, error) {
	bearer, err := s.codec.Issue(userID, s.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	if _, err := repo.Create(ctx, userID, hashToken(bearer), s.sessionTTL); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return bearer, nil
}

// Register creates the identity and immediately establishes a session.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*registry.Identity, string, error) {
	identity, err := s.verifier.Register(ctx, email, password, name)
	if err != nil {
		return nil, "", err
	}
	bearer, err := s.issueSession(ctx, s.storage.Sessions(), identity.ID)
	if err != nil {
		return nil, "", err
	}
	return identity, bearer, nil
}

// Login verifies credentials and establishes a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*registry.Identity, string, error) {
	identity, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	bearer, err := s.issueSession(ctx, s.storage.Sessions(), identity.ID)
	if err != nil {
		return nil, "", err
	}
	return identity, bearer, nil
}

// Authenticate resolves a bearer token to its identity. Expired session rows
// are purged on the spot; there is no background sweeper.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*registry.Identity, error) {
	userID, err := s.codec.Decode(bearer)
	if err != nil {
		return nil, err
	}

	repo := s.storage.Sessions()
	row, err := repo.FindByTokenHash(ctx, hashToken(bearer))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotAuthenticated
		}
		return nil, err
	}
	if !time.Now().Before(row.ExpiresAt) {
		if err := repo.Delete(ctx, row.TokenHash); err != nil {
			s.logger.Warn(ctx, "purging expired session failed", "error", err)
		}
		return nil, common.ErrTokenExpired
	}
	if row.UserID != userID {
		return nil, common.ErrNotAuthenticated
	}

	return s.storage.Registry().GetByID(ctx, userID)
}

// Logout deletes the session row for the bearer. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, bearer string) error {
	return s.storage.Sessions().Delete(ctx, hashToken(bearer))
}

// Refresh rotates the session: the old row is deleted and a new token with a
// fresh TTL is issued, transactionally.
func (s *AuthService) Refresh(ctx context.Context, bearer string) (string, error) {
	identity, err := s.Authenticate(ctx, bearer)
	if err != nil {
		return "", err
	}

	var fresh string
	err = dbx.WithTx(ctx, s.storage.Conn(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessions.NewPostgresRepository(tx)
		if err := repo.Delete(ctx, hashToken(bearer)); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		var issueErr error
		fresh, issueErr = s.issueSession(ctx, repo, identity.ID)
		return issueErr
	})
	if err != nil {
		return "", err
	}

	if n, err := s.storage.Sessions().DeleteExpired(ctx); err == nil && n > 0 {
		s.logger.Debug(ctx, "purged expired sessions", "count", n)
	}
	return fresh, nil
}

// UpdateUser applies a profile patch to the identity.
func (s *AuthService) UpdateUser(ctx context.Context, userID string, p registry.Patch) (*registry.Identity, error) {
	return s.storage.Registry().Update(ctx, userID, p)
}

// ChangePassword replaces the identity's secret after verifying the current
// one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return s.verifier.ChangeSecret(ctx, userID, currentPassword, newPassword)
}

// ResetPassword acknowledges a reset request without revealing whether the
// email is registered. Mail delivery is out of scope.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	identity, err := s.storage.Registry().GetByEmail(ctx, registry.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	s.logger.Info(ctx, "password reset requested", "user_id", identity.ID)
	return nil
}

// Profile returns the user's extended profile, or an empty one if none has
// been saved yet.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.storage.Profiles().Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return &models.Profile{UserID: userID}, nil
	}
	return p, err
}

// SaveProfile replaces the user's extended profile.
func (s *AuthService) SaveProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	return s.storage.Profiles().Upsert(ctx, p)
}
