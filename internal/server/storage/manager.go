// Package storage aggregates the server's PostgreSQL repositories behind a
// single manager and owns schema migrations.
package storage

import (
	"context"
	"database/sql"

	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/server/repositories/profiles"
	"github.com/webstarter/authkit/internal/server/repositories/sessions"
)

type Manager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Registry() registry.Registry
	Sessions() sessions.Repository
	Profiles() profiles.Repository
	Close() error
}
