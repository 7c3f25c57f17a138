// Command clean transforms the raw download into the cleaned file with the
// fixed derived-feature schema.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/mta-ridership-etl/internal/config"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
	"github.com/couchcryptid/mta-ridership-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cleaner := pipeline.NewCleaner(logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cleaner.Run(ctx, cfg.RawPath, cfg.CleanedPath); err != nil {
		logger.Error("clean failed", "error", err)
		os.Exit(1)
	}
}
