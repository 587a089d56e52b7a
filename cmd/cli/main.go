package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/webstarter/authkit/internal/client/cli"
	"github.com/webstarter/authkit/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("cli error: %v", err)
	}
}
