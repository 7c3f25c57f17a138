// Command load replaces the ridership table's contents with the cleaned file.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/mta-ridership-etl/internal/adapter/postgres"
	"github.com/couchcryptid/mta-ridership-etl/internal/config"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
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

	db, err := postgres.Open(cfg.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "host", cfg.DBHost, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	loader := postgres.NewLoader(db, cfg.LoadBatchSize, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loader.LoadFile(ctx, cfg.CleanedPath, cfg.RidershipTable); err != nil {
		logger.Error("load failed", "error", err)
		os.Exit(1)
	}
}
