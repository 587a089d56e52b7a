package provider

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
	"github.com/webstarter/authkit/internal/token"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func newTestLocal(t *testing.T) (*Local, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	l := NewLocal(
		registry.NewMemoryRegistry(),
		token.NewCodec([]byte("test-secret")),
		store,
		testLogger(),
	)
	require.NoError(t, registry.SeedDemoUsers(context.Background(), l.Verifier()))
	return l, store
}

func TestLocal_LoginFlow(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocal(t)

	// Fresh store: no session.
	s, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, s)

	_, err = l.Login(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidSecret)

	_, err = l.Login(ctx, "nobody@example.com", "user123")
	require.ErrorIs(t, err, common.ErrNotFound)

	s, err = l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", s.User.Email)
	require.NotEmpty(t, s.AccessToken)
	require.NotEmpty(t, s.RefreshToken)

	got, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, got.User.ID)

	u, err := l.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, u.ID)

	require.NoError(t, l.Logout(ctx))

	s, err = l.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, s)

	// Logout without a session is still fine.
	require.NoError(t, l.Logout(ctx))
}

func TestLocal_RegisterFlow(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocal(t)

	s, err := l.Register(ctx, "new@example.com", "pass123", "New User")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", s.User.Email)
	require.Equal(t, registry.RoleUser, s.User.Role)

	// Registration logs the user in.
	got, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, got.User.ID)

	_, err = l.Register(ctx, "new@example.com", "other", "Dup")
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLocal_RefreshIssuesNewToken(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := session.NewMemoryStore().WithClock(func() time.Time { return base })
	codec := token.NewCodec([]byte("test-secret")).WithClock(func() time.Time { return base })
	l := NewLocal(registry.NewMemoryRegistry(), codec, store, testLogger()).
		WithClock(func() time.Time { return base })
	require.NoError(t, registry.SeedDemoUsers(ctx, l.Verifier()))

	s1, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	// Advance the clock so the new token has a different issued-at.
	later := base.Add(time.Minute)
	store.WithClock(func() time.Time { return later })
	codec.WithClock(func() time.Time { return later })
	l.WithClock(func() time.Time { return later })

	s2, err := l.RefreshSession(ctx)
	require.NoError(t, err)
	require.Equal(t, s1.User.ID, s2.User.ID)
	require.NotEqual(t, s1.AccessToken, s2.AccessToken)
	require.NotEqual(t, s1.RefreshToken, s2.RefreshToken)
	require.True(t, s2.ExpiresAt.After(s1.ExpiresAt))
}

func TestLocal_SequentialLoginsProduceDistinctTokens(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := session.NewMemoryStore()
	codec := token.NewCodec([]byte("test-secret")).WithClock(func() time.Time { return base })
	l := NewLocal(registry.NewMemoryRegistry(), codec, store, testLogger()).
		WithClock(func() time.Time { return base })
	require.NoError(t, registry.SeedDemoUsers(ctx, l.Verifier()))

	// Two logins at the same clock instant must not hand out the same token.
	s1, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)
	s2, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	require.NotEqual(t, s1.AccessToken, s2.AccessToken)
	require.NotEqual(t, s1.RefreshToken, s2.RefreshToken)

	// Both tokens decode to the same subject while unexpired.
	for _, tok := range []string{s1.AccessToken, s2.AccessToken} {
		subject, err := codec.Decode(tok)
		require.NoError(t, err)
		require.Equal(t, s1.User.ID, subject)
	}
}

func TestLocal_RefreshWithoutSession(t *testing.T) {
	l, _ := newTestLocal(t)

	_, err := l.RefreshSession(context.Background())
	require.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestLocal_GetSessionSelfHeals(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLocal(t)

	s, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	// Tamper with the stored token.
	s.AccessToken = "garbage"
	require.NoError(t, store.Save(ctx, s))

	got, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	// The broken session was cleared, not merely skipped.
	raw, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestLocal_GetSessionRejectsSubjectMismatch(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLocal(t)

	s, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	// A valid token for a different subject must not be accepted.
	s.User.ID = "someone-else"
	require.NoError(t, store.Save(ctx, s))

	got, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestLocal_UpdateUser(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocal(t)

	_, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	name := "Renamed"
	updated, err := l.UpdateUser(ctx, registry.Patch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	// The cached session carries the new identity.
	s, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "Renamed", s.User.Name)
}

func TestLocal_UpdateUserWithoutSession(t *testing.T) {
	l, _ := newTestLocal(t)

	name := "Renamed"
	_, err := l.UpdateUser(context.Background(), registry.Patch{Name: &name})
	require.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestLocal_ChangePassword(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocal(t)

	_, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	err = l.ChangePassword(ctx, "wrong", "next123")
	require.ErrorIs(t, err, common.ErrInvalidSecret)

	require.NoError(t, l.ChangePassword(ctx, "user123", "next123"))
	require.NoError(t, l.Logout(ctx))

	_, err = l.Login(ctx, "user@example.com", "user123")
	require.ErrorIs(t, err, common.ErrInvalidSecret)

	_, err = l.Login(ctx, "user@example.com", "next123")
	require.NoError(t, err)
}

func TestLocal_ResetPasswordIsSilent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocal(t)

	// Known and unknown addresses get the same answer.
	require.NoError(t, l.ResetPassword(ctx, "user@example.com"))
	require.NoError(t, l.ResetPassword(ctx, "nobody@example.com"))
}

func TestLocal_ExpiredSessionIsGone(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := session.NewMemoryStore().WithClock(func() time.Time { return base })
	codec := token.NewCodec([]byte("test-secret")).WithClock(func() time.Time { return base })
	l := NewLocal(registry.NewMemoryRegistry(), codec, store, testLogger()).
		WithTTL(time.Minute).
		WithClock(func() time.Time { return base })
	require.NoError(t, registry.SeedDemoUsers(ctx, l.Verifier()))

	_, err := l.Login(ctx, "user@example.com", "user123")
	require.NoError(t, err)

	// Exactly at the expiry instant the session is no longer usable.
	at := base.Add(time.Minute)
	store.WithClock(func() time.Time { return at })
	codec.WithClock(func() time.Time { return at })

	got, err := l.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}
