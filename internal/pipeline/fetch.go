// Package pipeline implements the batch stages of the ridership ETL:
// fetching the raw dataset and cleaning it into the fixed derived-feature
// schema. Stages are all-or-nothing; a failed run leaves no partial output
// and is rerun by the operator.
package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
)

// PageClient fetches one page of raw CSV rows at a given offset.
type PageClient interface {
	FetchPage(ctx context.Context, limit, offset int) (header []string, rows [][]string, err error)
}

// Fetcher downloads a bounded number of rows from a paginated source into a
// single local CSV file.
type Fetcher struct {
	client   PageClient
	pageSize int
	delay    time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewFetcher creates a Fetcher. delay is the courtesy pause between page
// requests; zero disables it.
func NewFetcher(client PageClient, pageSize int, delay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		client:   client,
		pageSize: pageSize,
		delay:    delay,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run pages through the source from the earliest records forward until the
// row budget is reached or the source runs out, then writes a single CSV.
// Any page failure aborts the whole run; accumulated pages are discarded.
func (f *Fetcher) Run(ctx context.Context, rowBudget int, outputPath string) error {
	f.logger.Info("fetch started", "row_budget", rowBudget, "page_size", f.pageSize)

	var (
		header []string
		rows   [][]string
		offset int
	)

	for len(rows) < rowBudget {
		limit := f.pageSize
		if remaining := rowBudget - len(rows); remaining < limit {
			limit = remaining
		}

		start := time.Now()
		pageHeader, page, err := f.client.FetchPage(ctx, limit, offset)
		if err != nil {
			f.metrics.FetchFailures.Inc()
			return fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		f.metrics.PagesFetched.Inc()
		f.metrics.PageDuration.Observe(time.Since(start).Seconds())

		if header == nil && len(pageHeader) > 0 {
			header = pageHeader
		}

		if len(page) == 0 {
			f.logger.Info("end of source data", "offset", offset)
			break
		}

		rows = append(rows, page...)
		f.metrics.RowsFetched.Add(float64(len(page)))
		f.logger.Info("page downloaded", "offset", offset, "page_rows", len(page), "total_rows", len(rows))

		if len(page) < limit {
			f.logger.Info("last available page downloaded")
			break
		}

		// Offset advances by rows actually returned so a short page can
		// never desynchronize pagination.
		offset += len(page)

		if len(rows) >= rowBudget {
			break
		}
		if !sleepWithContext(ctx, f.delay) {
			return ctx.Err()
		}
	}

	if len(rows) == 0 {
		f.metrics.FetchFailures.Inc()
		return errors.New("no data downloaded")
	}
	if len(rows) > rowBudget {
		rows = rows[:rowBudget]
	}

	if err := writeCSV(outputPath, header, rows); err != nil {
		f.metrics.FetchFailures.Inc()
		return fmt.Errorf("write raw file: %w", err)
	}

	f.logger.Info("fetch complete", "rows", len(rows), "path", outputPath)
	return nil
}

// writeCSV writes header+rows to path, creating parent directories.
func writeCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			file.Close()
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
