package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/server/models"
)

// stubAuth is a scriptable AuthBackend covering the handler paths.
type stubAuth struct {
	identity *registry.Identity
	bearer   string
	err      error

	profile *models.Profile
}

func (s *stubAuth) Register(context.Context, string, string, string) (*registry.Identity, string, error) {
	return s.identity, s.bearer, s.err
}

func (s *stubAuth) Login(context.Context, string, string) (*registry.Identity, string, error) {
	return s.identity, s.bearer, s.err
}

func (s *stubAuth) Authenticate(_ context.Context, bearer string) (*registry.Identity, error) {
	if bearer != s.bearer {
		return nil, common.ErrInvalidToken
	}
	return s.identity, s.err
}

func (s *stubAuth) Logout(context.Context, string) error { return s.err }

func (s *stubAuth) Refresh(context.Context, string) (string, error) {
	return "rotated-" + s.bearer, s.err
}

func (s *stubAuth) UpdateUser(_ context.Context, _ string, p registry.Patch) (*registry.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.identity
	if p.Name != nil {
		cp.Name = *p.Name
	}
	return &cp, nil
}

func (s *stubAuth) ChangePassword(context.Context, string, string, string) error { return s.err }

func (s *stubAuth) ResetPassword(context.Context, string) error { return s.err }

func (s *stubAuth) Profile(context.Context, string) (*models.Profile, error) {
	return s.profile, s.err
}

func (s *stubAuth) SaveProfile(_ context.Context, p *models.Profile) (*models.Profile, error) {
	s.profile = p
	return p, s.err
}

type stubAvatars struct {
	url string
	key string
	err error
}

func (s *stubAvatars) PresignUpload(context.Context, string) (string, string, error) {
	return s.url, s.key, s.err
}

func (s *stubAvatars) PresignDownload(context.Context, string) (string, error) {
	return s.url, s.err
}

func newTestServer(auth *stubAuth) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	return NewServer(":0", auth, &stubAvatars{url: "https://s3/upload", key: "avatars/u/k"}, logger)
}

func doRequest(t *testing.T, s *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	return e.Error
}

func testIdentity() *registry.Identity {
	return &registry.Identity{ID: "user-1", Email: "user@example.com", Name: "User", Role: registry.RoleUser}
}

func TestHandleRegister(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/register",
		"", map[string]string{"email": "user@example.com", "password": "pass", "name": "User"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var out sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "user-1", out.User.ID)
	require.Equal(t, "bearer-1", out.Token)
}

func TestHandleRegister_Validation(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "email and password are required", errorMessage(t, rr))
}

func TestHandleRegister_Conflict(t *testing.T) {
	s := newTestServer(&stubAuth{err: common.ErrAlreadyExists})

	rr := doRequest(t, s, http.MethodPost, "/auth/register",
		"", map[string]string{"email": "user@example.com", "password": "pass"})
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleLogin(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/login",
		"", map[string]string{"email": "user@example.com", "password": "pass"})
	require.Equal(t, http.StatusOK, rr.Code)

	var out sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "bearer-1", out.Token)
}

func TestHandleLogin_CollapsesFailureReasons(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable.
	for _, sentinel := range []error{common.ErrNotFound, common.ErrInvalidSecret} {
		s := newTestServer(&stubAuth{err: sentinel})

		rr := doRequest(t, s, http.MethodPost, "/auth/login",
			"", map[string]string{"email": "user@example.com", "password": "pass"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Equal(t, "invalid email or password", errorMessage(t, rr))
	}
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "missing bearer token", errorMessage(t, rr))

	rr = doRequest(t, s, http.MethodGet, "/auth/me", "wrong", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid or expired token", errorMessage(t, rr))

	rr = doRequest(t, s, http.MethodGet, "/auth/me", "bearer-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		User registry.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "user-1", out.User.ID)
}

func TestHandleUpdateMe(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPatch, "/auth/me", "bearer-1", map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		User registry.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "Renamed", out.User.Name)
}

func TestHandleRefresh(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/refresh", "bearer-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "rotated-bearer-1", out.Token)
}

func TestHandleLogout(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/logout", "bearer-1", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandleChangePassword(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPut, "/auth/password", "bearer-1",
		map[string]string{"currentPassword": "old", "newPassword": "new"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, s, http.MethodPut, "/auth/password", "bearer-1",
		map[string]string{"currentPassword": "old"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleResetPassword_AlwaysAccepted(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/reset", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHandleProfileRoundTrip(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPut, "/auth/profile", "bearer-1",
		map[string]any{"bio": "hello", "location": "Berlin"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, s, http.MethodGet, "/auth/profile", "bearer-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var p models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "hello", p.Bio)
	require.Equal(t, "user-1", p.UserID)
}

func TestHandleAvatarUpload(t *testing.T) {
	s := newTestServer(&stubAuth{identity: testIdentity(), bearer: "bearer-1"})

	rr := doRequest(t, s, http.MethodPost, "/auth/avatar", "bearer-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "https://s3/upload", out["uploadUrl"])
	require.Equal(t, "avatars/u/k", out["key"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubAuth{})

	rr := doRequest(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}
