package main

import (
	"context"
	"log"

	"github.com/webstarter/authkit/internal/server"
	"github.com/webstarter/authkit/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
