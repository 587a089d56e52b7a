package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/server/migrations"
	"github.com/webstarter/authkit/internal/server/repositories/profiles"
	"github.com/webstarter/authkit/internal/server/repositories/sessions"
)

type PostgresManager struct {
	db       *sql.DB
	registry registry.Registry
	sessions sessions.Repository
	profiles profiles.Repository
}

func (m *PostgresManager) Conn() *sql.DB                 { return m.db }
func (m *PostgresManager) Registry() registry.Registry   { return m.registry }
func (m *PostgresManager) Sessions() sessions.Repository { return m.sessions }
func (m *PostgresManager) Profiles() profiles.Repository { return m.profiles }
func (m *PostgresManager) Close() error                  { return m.db.Close() }

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

// NewPostgresManager opens the database, builds the repositories, and runs
// migrations.
func NewPostgresManager(ctx context.Context, dsn string) (Manager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{
		db:       db,
		registry: registry.NewPostgresRegistry(db),
		sessions: sessions.NewPostgresRepository(db),
		profiles: profiles.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}
