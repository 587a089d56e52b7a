package controller

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
)

// fakeProvider is a scriptable provider: each operation returns whatever the
// test set up, and records that it was called.
type fakeProvider struct {
	session *session.Session
	err     error
	calls   []string
}

func (f *fakeProvider) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeProvider) Login(context.Context, string, string) (*session.Session, error) {
	f.record("login")
	return f.session, f.err
}

func (f *fakeProvider) Register(context.Context, string, string, string) (*session.Session, error) {
	f.record("register")
	return f.session, f.err
}

func (f *fakeProvider) Logout(context.Context) error {
	f.record("logout")
	return f.err
}

func (f *fakeProvider) GetSession(context.Context) (*session.Session, error) {
	f.record("get_session")
	return f.session, f.err
}

func (f *fakeProvider) GetCurrentUser(context.Context) (*registry.Identity, error) {
	f.record("get_current_user")
	if f.session == nil {
		return nil, f.err
	}
	return &f.session.User, f.err
}

func (f *fakeProvider) RefreshSession(context.Context) (*session.Session, error) {
	f.record("refresh")
	return f.session, f.err
}

func (f *fakeProvider) UpdateUser(context.Context, registry.Patch) (*registry.Identity, error) {
	f.record("update_user")
	if f.err != nil {
		return nil, f.err
	}
	return &f.session.User, nil
}

func (f *fakeProvider) ChangePassword(context.Context, string, string) error {
	f.record("change_password")
	return f.err
}

func (f *fakeProvider) ResetPassword(context.Context, string) error {
	f.record("reset_password")
	return f.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func liveSession() *session.Session {
	return &session.Session{
		User:        registry.Identity{ID: "user-1", Email: "user@example.com", Name: "User"},
		AccessToken: "token-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestController_StartsUninitialized(t *testing.T) {
	c := New(&fakeProvider{}, testLogger())

	state := c.State()
	require.Equal(t, StatusUninitialized, state.Status)
	require.False(t, state.Authenticated)
	require.Nil(t, state.User)
	require.Nil(t, state.Err)
}

func TestController_InitializeRestoresSession(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Initialize(context.Background()))

	state := c.State()
	require.Equal(t, StatusAuthenticated, state.Status)
	require.True(t, state.Authenticated)
	require.Equal(t, "user-1", state.User.ID)
	require.False(t, state.Loading)
}

func TestController_InitializeWithoutSession(t *testing.T) {
	c := New(&fakeProvider{}, testLogger())

	require.NoError(t, c.Initialize(context.Background()))

	state := c.State()
	require.Equal(t, StatusUnauthenticated, state.Status)
	require.False(t, state.Authenticated)
}

func TestController_LoginSuccess(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	state := c.State()
	require.Equal(t, StatusAuthenticated, state.Status)
	require.True(t, state.Authenticated)
	require.Equal(t, "token-1", state.Session.AccessToken)
}

func TestController_LoginFailureIsReportedTwice(t *testing.T) {
	p := &fakeProvider{err: common.ErrInvalidSecret}
	c := New(p, testLogger())

	// The error comes back from the call and is recorded in the state.
	err := c.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	var ae *common.AuthError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, common.CodeInvalidSecret, ae.Code)

	state := c.State()
	require.Equal(t, StatusError, state.Status)
	require.NotNil(t, state.Err)
	require.Equal(t, common.CodeInvalidSecret, state.Err.Code)
	require.False(t, state.Loading)
	require.False(t, state.Authenticated)
}

func TestController_FailedActionKeepsSession(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	p.err = common.ErrInvalidSecret
	require.Error(t, c.ChangePassword(context.Background(), "wrong", "next"))

	// The failure did not log the user out.
	state := c.State()
	require.Equal(t, StatusError, state.Status)
	require.True(t, state.Authenticated)
	require.NotNil(t, state.User)
}

func TestController_ClearError(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	p.err = common.ErrInvalidSecret
	require.Error(t, c.ChangePassword(context.Background(), "wrong", "next"))

	c.ClearError()

	state := c.State()
	require.Nil(t, state.Err)
	require.Equal(t, StatusAuthenticated, state.Status)
}

func TestController_Logout(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))
	require.NoError(t, c.Logout(context.Background()))

	state := c.State()
	require.Equal(t, StatusUnauthenticated, state.Status)
	require.False(t, state.Authenticated)
	require.Nil(t, state.User)
	require.Nil(t, state.Session)
}

func TestController_UpdateUserRefreshesSnapshot(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	p.session.User.Name = "Renamed"
	name := "Renamed"
	require.NoError(t, c.UpdateUser(context.Background(), registry.Patch{Name: &name}))

	state := c.State()
	require.Equal(t, StatusAuthenticated, state.Status)
	require.Equal(t, "Renamed", state.User.Name)
	require.Equal(t, "Renamed", state.Session.User.Name)
}

func TestController_RefreshSession(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	p.session = liveSession()
	p.session.AccessToken = "token-2"
	require.NoError(t, c.RefreshSession(context.Background()))

	state := c.State()
	require.Equal(t, "token-2", state.Session.AccessToken)
	require.True(t, state.Authenticated)
}

func TestController_ResetPasswordLeavesStateAlone(t *testing.T) {
	c := New(&fakeProvider{}, testLogger())

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.ResetPassword(context.Background(), "user@example.com"))

	state := c.State()
	require.Equal(t, StatusUnauthenticated, state.Status)
	require.Nil(t, state.Err)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	p := &fakeProvider{session: liveSession()}
	c := New(p, testLogger())

	require.NoError(t, c.Login(context.Background(), "user@example.com", "user123"))

	state := c.State()
	state.User.Name = "mutated"

	require.Equal(t, "User", c.State().User.Name)
}
