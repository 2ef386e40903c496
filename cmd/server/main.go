// Package main is the entry point for the recipe-share API server.
//
// main stays minimal:
//  1. load configuration (.env + environment)
//  2. build the logger
//  3. hand both to internal/server and block until shutdown
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/recipe-share/internal/config"
	"github.com/sakif/recipe-share/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Levels from least to most severe: Debug → Info → Warn → Error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	ctx := context.Background()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
