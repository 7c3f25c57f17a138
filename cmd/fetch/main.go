// Command fetch downloads the hourly ridership dataset from the Socrata API
// into the raw data file, paginating up to the configured row budget.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/mta-ridership-etl/internal/adapter/socrata"
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

	client := socrata.NewClient(cfg.SocrataBaseURL, cfg.DatasetID, cfg.FetchTimeout, logger)
	fetcher := pipeline.NewFetcher(client, cfg.PageSize, cfg.FetchDelay, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fetcher.Run(ctx, cfg.RowBudget, cfg.RawPath); err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}
