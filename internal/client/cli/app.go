// Package cli implements the interactive demo client: a small REPL over the
// auth controller, talking either to the HTTP backend or to an in-process
// provider seeded with demo users.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/webstarter/authkit/internal/client/config"
	"github.com/webstarter/authkit/internal/controller"
	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/provider"
	"github.com/webstarter/authkit/internal/registry"
	"github.com/webstarter/authkit/internal/session"
	"github.com/webstarter/authkit/internal/token"
)

type App struct {
	config *config.Config
	auth   *controller.Controller
	reader *bufio.Reader
	db     *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var (
		store session.Store
		db    *sql.DB
	)
	if cfg.SessionDBPath != "" {
		var err error
		db, err = session.Open(ctx, cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("open session db: %w", err)
		}
		store = session.NewSQLiteStore(db)
	} else {
		store = session.NewMemoryStore()
	}

	var p provider.AuthProvider
	if cfg.UseMock {
		local := provider.NewLocal(
			registry.NewMemoryRegistry(),
			token.NewCodec([]byte(cfg.SecretKey)),
			store,
			logger,
		).WithTTL(cfg.SessionTTL)

		if err := registry.SeedDemoUsers(ctx, local.Verifier()); err != nil {
			return nil, fmt.Errorf("seed demo users: %w", err)
		}
		p = local
	} else {
		p = provider.NewRemote(cfg.ServerURL, &http.Client{Timeout: 10 * time.Second}, store, logger)
	}

	return &App{
		config: cfg,
		auth:   controller.New(p, logger),
		reader: bufio.NewReader(os.Stdin),
		db:     db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.auth.Initialize(ctx); err != nil {
		fmt.Println("Session restore failed:", err)
	}

	a.Root(ctx)
	return nil
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().Authenticated
}
