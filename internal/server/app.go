// Package server initializes and runs the auth backend: storage, services,
// and the HTTP API, with graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/webstarter/authkit/internal/logging"
	"github.com/webstarter/authkit/internal/server/config"
	"github.com/webstarter/authkit/internal/server/httpapi"
	"github.com/webstarter/authkit/internal/server/services"
	"github.com/webstarter/authkit/internal/server/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage storage.Manager
	api     *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	m, err := storage.NewPostgresManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	auth := services.NewAuthService(m, cfg, logger)
	avatars := services.NewAvatarService(cfg)
	api := httpapi.NewServer(cfg.Addr, auth, avatars, logger)

	return &App{config: cfg, logger: logger, storage: m, api: api}, nil
}

func (app *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "starting auth server")
	app.initSignalHandler(cancel)

	err := app.api.Run(ctx)

	if closeErr := app.storage.Close(); closeErr != nil {
		app.logger.Warn(ctx, "closing storage failed", "error", closeErr)
	}
	return err
}
