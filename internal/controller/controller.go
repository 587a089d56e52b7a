// Package controller implements the process-wide authentication state
// machine that mediates between UI callers and the auth provider. It exposes
// a snapshot of the shared state plus imperative actions; reactive bindings
// are a caller concern.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/provider"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
)

// Status names the controller's current position in the state machine.
type Status string

const (
	StatusUninitialized   Status = "uninitialized"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// State is a point-in-time snapshot of the authentication state.
//
// Invariant: Authenticated is true iff User and Session are both set and the
// session is unexpired.
type State struct {
	Status        Status
	User          *registry.Identity
	Session       *session.Session
	Loading       bool
	Authenticated bool
	Err           *common.AuthError
}

// Controller is the auth state container. Every action is an atomic
// request/response cycle against the provider; failures are recorded in the
// shared state as a typed AuthError and also returned, so synchronous call
// sites can react without polling state.
type Controller struct {
	mu       sync.Mutex
	provider provider.AuthProvider
	logger   logging.Logger
	now      func() time.Time
	state    State
}

func New(p provider.AuthProvider, logger logging.Logger) *Controller {
	return &Controller{
		provider: p,
		logger:   logger,
		now:      time.Now,
		state:    State{Status: StatusUninitialized},
	}
}

// State returns a copy of the current snapshot. The contained identity and
// session are copies too; mutating them does not affect the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Session != nil {
		sess := *s.Session
		s.Session = &sess
	}
	return s
}

func (c *Controller) begin() {
	c.state.Status = StatusLoading
	c.state.Loading = true
	c.state.Err = nil
}

func (c *Controller) succeed(s *session.Session) {
	c.state = State{
		Status:        StatusAuthenticated,
		User:          &s.User,
		Session:       s,
		Authenticated: true,
	}
}

func (c *Controller) unauthenticated() {
	c.state = State{Status: StatusUnauthenticated}
}

// fail records err in the state and returns its typed form. A failed action
// does not clear previously authenticated state: only logout and
// expiry-triggered clears do that.
func (c *Controller) fail(ctx context.Context, action string, err error) error {
	ae := common.NewAuthError(err)
	c.logger.Warn(ctx, "auth action failed", "action", action, "code", ae.Code, "error", err)
	c.state.Status = StatusError
	c.state.Loading = false
	c.state.Err = ae
	c.refreshAuthenticated()
	return ae
}

// settle returns the machine to authenticated/unauthenticated after an
// action that did not change the session.
func (c *Controller) settle() {
	c.state.Loading = false
	c.state.Err = nil
	c.refreshAuthenticated()
	if c.state.Authenticated {
		c.state.Status = StatusAuthenticated
	} else {
		c.state.Status = StatusUnauthenticated
	}
}

func (c *Controller) refreshAuthenticated() {
	c.state.Authenticated = c.state.User != nil &&
		c.state.Session != nil &&
		!c.state.Session.Expired(c.now())
}

// Initialize attempts session restoration. It moves the machine from
// uninitialized through loading into authenticated or unauthenticated.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	s, err := c.provider.GetSession(ctx)
	if err != nil {
		return c.fail(ctx, "initialize", err)
	}
	if s == nil {
		c.unauthenticated()
		return nil
	}
	c.succeed(s)
	return nil
}

func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	s, err := c.provider.Login(ctx, email, password)
	if err != nil {
		return c.fail(ctx, "login", err)
	}
	c.succeed(s)
	return nil
}

func (c *Controller) Register(ctx context.Context, email, password, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	s, err := c.provider.Register(ctx, email, password, name)
	if err != nil {
		return c.fail(ctx, "register", err)
	}
	c.succeed(s)
	return nil
}

func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	if err := c.provider.Logout(ctx); err != nil {
		return c.fail(ctx, "logout", err)
	}
	c.unauthenticated()
	return nil
}

func (c *Controller) UpdateUser(ctx context.Context, p registry.Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	identity, err := c.provider.UpdateUser(ctx, p)
	if err != nil {
		return c.fail(ctx, "update_user", err)
	}

	c.state.User = identity
	if c.state.Session != nil {
		c.state.Session.User = *identity
	}
	c.settle()
	return nil
}

func (c *Controller) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	if err := c.provider.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		return c.fail(ctx, "change_password", err)
	}
	c.settle()
	return nil
}

func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	if err := c.provider.ResetPassword(ctx, email); err != nil {
		return c.fail(ctx, "reset_password", err)
	}
	c.settle()
	return nil
}

func (c *Controller) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin()
	s, err := c.provider.RefreshSession(ctx)
	if err != nil {
		return c.fail(ctx, "refresh_session", err)
	}
	c.succeed(s)
	return nil
}

// ClearError drops the last recorded error and settles the status according
// to the remaining state.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusUninitialized {
		c.state.Err = nil
		return
	}
	c.settle()
}
