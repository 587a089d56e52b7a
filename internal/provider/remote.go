package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
	"github.com/webstarter/authkit/internal/token"
)

// Remote delegates every operation to the auth REST API. The bearer token is
// kept in the store's token slot; its validity is authoritative server-side,
// the local expiry is only a hint read from the token itself.
type Remote struct {
	baseURL string
	hc      *http.Client
	store   session.Store
	ttl     time.Duration
	logger  logging.Logger
	now     func() time.Time
}

// NewRemote wires a remote provider against baseURL (e.g. "http://api:8080").
// A nil client defaults to http.DefaultClient.
func NewRemote(baseURL string, hc *http.Client, store session.Store, logger logging.Logger) *Remote {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		store:   store,
		ttl:     DefaultSessionTTL,
		logger:  logger,
		now:     time.Now,
	}
}

type loginResponse struct {
	User  registry.Identity `json:"user"`
	Token string            `json:"token"`
}

type meResponse struct {
	User registry.Identity `json:"user"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

// do performs one JSON request. The returned error covers transport and
// encoding failures only (wrapped in common.ErrNetwork); HTTP status handling
// is left to the caller.
func (r *Remote) do(ctx context.Context, method, path string, body any, bearer string) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", common.ErrNetwork, err)
	}
	return resp.StatusCode, data, nil
}

// serverMessage extracts the {error} body the API sends on failures.
func serverMessage(body []byte, fallback string) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return fallback
}

// statusError maps a non-2xx response to a sentinel-wrapped error carrying
// the server-reported message. unauthorized names the sentinel used for 401,
// which differs per operation.
func statusError(status int, body []byte, unauthorized error) error {
	msg := serverMessage(body, http.StatusText(status))
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, unauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, common.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, common.ErrAlreadyExists)
	default:
		return fmt.Errorf("auth api: %s (status %d)", msg, status)
	}
}

// sessionFromToken builds the client-side session view around a server-issued
// token. The expiry hint comes from the token when readable.
func (r *Remote) sessionFromToken(user registry.Identity, bearer string) *session.Session {
	expires, ok := token.ExpiryHint(bearer)
	if !ok {
		expires = r.now().Add(r.ttl)
	}
	return &session.Session{User: user, AccessToken: bearer, ExpiresAt: expires}
}

func (r *Remote) establish(ctx context.Context, out loginResponse) (*session.Session, error) {
	if err := r.store.SaveToken(ctx, out.Token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	s := r.sessionFromToken(out.User, out.Token)
	if err := r.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// clearCached drops both the bearer token and the cached session, mirroring
// the local variant's self-healing on server-reported invalid tokens.
func (r *Remote) clearCached(ctx context.Context) {
	if err := r.store.ClearToken(ctx); err != nil {
		r.logger.Warn(ctx, "clearing cached token failed", "error", err)
	}
	if err := r.store.Clear(ctx); err != nil {
		r.logger.Warn(ctx, "clearing cached session failed", "error", err)
	}
}

func (r *Remote) Login(ctx context.Context, email, password string) (*session.Session, error) {
	req := map[string]string{"email": email, "password": password}
	status, body, err := r.do(ctx, http.MethodPost, "/auth/login", req, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body, common.ErrInvalidSecret)
	}

	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding login response: %v", common.ErrNetwork, err)
	}
	return r.establish(ctx, out)
}

func (r *Remote) Register(ctx context.Context, email, password, name string) (*session.Session, error) {
	req := map[string]string{"email": email, "password": password, "name": name}
	status, body, err := r.do(ctx, http.MethodPost, "/auth/register", req, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusError(status, body, common.ErrInvalidSecret)
	}

	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding register response: %v", common.ErrNetwork, err)
	}
	return r.establish(ctx, out)
}

func (r *Remote) Logout(ctx context.Context) error {
	bearer, err := r.store.LoadToken(ctx)
	if err == nil && bearer != "" {
		if _, _, err := r.do(ctx, http.MethodPost, "/auth/logout", nil, bearer); err != nil {
			r.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}
	// Local cleanup happens regardless of what the server said.
	r.clearCached(ctx)
	return nil
}

func (r *Remote) GetSession(ctx context.Context) (*session.Session, error) {
	bearer, err := r.store.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	if bearer == "" {
		return nil, nil
	}

	status, body, err := r.do(ctx, http.MethodGet, "/auth/me", nil, bearer)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		r.clearCached(ctx)
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusError(status, body, common.ErrNotAuthenticated)
	}

	var out meResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding me response: %v", common.ErrNetwork, err)
	}

	s := r.sessionFromToken(out.User, bearer)
	if err := r.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

func (r *Remote) GetCurrentUser(ctx context.Context) (*registry.Identity, error) {
	s, err := r.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return &s.User, nil
}

func (r *Remote) RefreshSession(ctx context.Context) (*session.Session, error) {
	bearer, err := r.store.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	if bearer == "" {
		return nil, common.ErrNotAuthenticated
	}

	status, body, err := r.do(ctx, http.MethodPost, "/auth/refresh", nil, bearer)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		r.clearCached(ctx)
		return nil, statusError(status, body, common.ErrNotAuthenticated)
	}
	if status != http.StatusOK {
		return nil, statusError(status, body, common.ErrNotAuthenticated)
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding refresh response: %v", common.ErrNetwork, err)
	}
	if err := r.store.SaveToken(ctx, out.Token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}

	s, err := r.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, common.ErrNotAuthenticated
	}
	return s, nil
}

func (r *Remote) UpdateUser(ctx context.Context, p registry.Patch) (*registry.Identity, error) {
	bearer, err := r.store.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	if bearer == "" {
		return nil, common.ErrNotAuthenticated
	}

	req := map[string]*string{"name": p.Name, "avatar": p.AvatarURL}
	status, body, err := r.do(ctx, http.MethodPatch, "/auth/me", req, bearer)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		r.clearCached(ctx)
		return nil, statusError(status, body, common.ErrNotAuthenticated)
	}
	if status != http.StatusOK {
		return nil, statusError(status, body, common.ErrNotAuthenticated)
	}

	var out meResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding update response: %v", common.ErrNetwork, err)
	}

	s := r.sessionFromToken(out.User, bearer)
	if err := r.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return &out.User, nil
}

func (r *Remote) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	bearer, err := r.store.LoadToken(ctx)
	if err != nil {
		return err
	}
	if bearer == "" {
		return common.ErrNotAuthenticated
	}

	req := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	status, body, err := r.do(ctx, http.MethodPut, "/auth/password", req, bearer)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusError(status, body, common.ErrInvalidSecret)
	}
	return nil
}

func (r *Remote) ResetPassword(ctx context.Context, email string) error {
	req := map[string]string{"email": email}
	status, body, err := r.do(ctx, http.MethodPost, "/auth/reset", req, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted && status != http.StatusNoContent {
		return statusError(status, body, common.ErrNotAuthenticated)
	}
	return nil
}

var (
	_ AuthProvider = (*Local)(nil)
	_ AuthProvider = (*Remote)(nil)
)
