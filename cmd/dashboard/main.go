// Command dashboard serves the ridership dashboard over HTTP. When the
// database is unreachable at startup the server still comes up; every data
// section renders a warning instead.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/mta-ridership-etl/internal/adapter/postgres"
	"github.com/couchcryptid/mta-ridership-etl/internal/config"
	"github.com/couchcryptid/mta-ridership-etl/internal/dashboard"
	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
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

	var source domain.RidershipSource
	db, err := postgres.Open(cfg.DSN())
	if err != nil {
		logger.Warn("database unavailable, serving degraded dashboard", "host", cfg.DBHost, "error", err)
		source = postgres.NewUnavailableSource(err)
	} else {
		defer db.Close()
		source = postgres.NewCachedSource(
			postgres.NewStore(db, metrics),
			cfg.CacheTTL,
			cfg.CacheMaxEntries,
			metrics,
		)
	}

	srv := dashboard.NewServer(cfg.HTTPAddr, source, cfg.RidershipTable, cfg.ForecastTable, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
