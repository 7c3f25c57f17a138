package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
)

const defaultLoadBatchSize = 1000

// tableColumns mirrors domain.CleanedHeader exactly; the loader inserts in
// that column order.
const tableColumns = `
	transit_timestamp TIMESTAMP,
	station_id INTEGER,
	station_name VARCHAR(255),
	borough VARCHAR(50),
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	hourly_ridership_total INTEGER,
	date DATE,
	hour SMALLINT,
	day_of_week_num SMALLINT,
	day_of_week_name VARCHAR(10),
	month SMALLINT,
	month_name VARCHAR(10),
	year SMALLINT,
	is_weekend BOOLEAN,
	is_am_rush BOOLEAN,
	is_pm_rush BOOLEAN`

// Loader replaces a table's contents with the rows of a cleaned file.
// Rows land in a staging table in fixed-size batches, then one transaction
// swaps staging over the live table, so a failed load leaves the previous
// contents intact.
type Loader struct {
	db        *sql.DB
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader creates a Loader. batchSize <= 0 falls back to the default.
func NewLoader(db *sql.DB, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if batchSize <= 0 {
		batchSize = defaultLoadBatchSize
	}
	return &Loader{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// LoadFile reads the cleaned file and replaces table's contents with it.
// Any failure aborts the load and reports an error; the live table keeps its
// previous rows until the final swap commits.
func (l *Loader) LoadFile(ctx context.Context, cleanedPath, table string) error {
	start := time.Now()

	records, err := readCleanedFile(cleanedPath)
	if err != nil {
		return err
	}

	l.logger.Info("load started", "rows", len(records), "table", table, "batch_size", l.batchSize)

	if err := l.ensureTable(ctx, table); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}

	staging := table + "_staging"
	if err := l.recreateStaging(ctx, staging); err != nil {
		return fmt.Errorf("prepare staging table %s: %w", staging, err)
	}

	for i := 0; i < len(records); i += l.batchSize {
		end := i + l.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := l.insertBatch(ctx, staging, records[i:end]); err != nil {
			return fmt.Errorf("insert batch at row %d: %w", i, err)
		}
		l.metrics.BatchesLoaded.Inc()
		l.metrics.RowsLoaded.Add(float64(end - i))
	}

	if err := l.swap(ctx, staging, table); err != nil {
		return fmt.Errorf("swap staging into %s: %w", table, err)
	}

	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.logger.Info("load complete", "rows", len(records), "table", table, "duration", time.Since(start))
	return nil
}

func (l *Loader) ensureTable(ctx context.Context, table string) error {
	_, err := l.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, tableColumns))
	return err
}

func (l *Loader) recreateStaging(ctx context.Context, staging string) error {
	if _, err := l.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", staging)); err != nil {
		return err
	}
	_, err := l.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", staging, tableColumns))
	return err
}

// insertBatch writes one batch in its own transaction to bound transaction size.
func (l *Loader) insertBatch(ctx context.Context, staging string, batch []domain.RidershipRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	args := make([]any, 0, len(batch)*len(domain.CleanedHeader))
	for _, rec := range batch {
		args = append(args, recordArgs(rec)...)
	}

	if _, err := tx.ExecContext(ctx, insertStatement(staging, len(batch)), args...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// swap atomically replaces the live table with the fully loaded staging table.
func (l *Loader) swap(ctx context.Context, staging, table string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, table)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertStatement(table string, rows int) string {
	cols := len(domain.CleanedHeader)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(domain.CleanedHeader, ", "))
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", r*cols+c+1)
		}
		b.WriteString(")")
	}
	return b.String()
}

func recordArgs(rec domain.RidershipRecord) []any {
	return []any{
		rec.Timestamp,
		rec.StationID,
		rec.StationName,
		rec.Borough,
		rec.Latitude,
		rec.Longitude,
		rec.Ridership,
		rec.Date,
		rec.Hour,
		rec.DayOfWeekNum,
		rec.DayOfWeekName,
		rec.Month,
		rec.MonthName,
		rec.Year,
		rec.IsWeekend,
		rec.IsAMRush,
		rec.IsPMRush,
	}
}

func readCleanedFile(path string) ([]domain.RidershipRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cleaned data file not found at %s (run the clean stage first)", path)
		}
		return nil, fmt.Errorf("open cleaned file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cleaned file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("cleaned file %s is empty", path)
	}

	records := make([]domain.RidershipRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := domain.ParseCleanedRow(row)
		if err != nil {
			return nil, fmt.Errorf("cleaned file row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
