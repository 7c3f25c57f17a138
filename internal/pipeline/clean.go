package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
)

// Cleaner transforms a raw download file into a cleaned file with the fixed
// derived-feature schema. The whole input is held in memory; practical input
// size is bounded by available memory, not by the cleaner.
type Cleaner struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCleaner creates a Cleaner.
func NewCleaner(logger *slog.Logger, metrics *observability.Metrics) *Cleaner {
	return &Cleaner{logger: logger, metrics: metrics}
}

// requiredRawColumns must all be present in the raw header.
var requiredRawColumns = []string{
	domain.RawColTimestamp,
	domain.RawColStationID,
	domain.RawColStation,
	domain.RawColRidership,
}

// Run reads the raw CSV at rawPath, applies the cleaning transformations, and
// writes the cleaned CSV to cleanedPath. Rows with unparseable timestamps or
// non-numeric station ids are dropped; unparseable ridership values default
// to zero and negatives are clamped. A missing raw file is an error.
func (c *Cleaner) Run(ctx context.Context, rawPath, cleanedPath string) error {
	file, err := os.Open(rawPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("raw data file not found at %s (run the fetch stage first)", rawPath)
		}
		return fmt.Errorf("open raw file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; parsing handles width
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read raw file: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("raw file %s is empty", rawPath)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range requiredRawColumns {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("raw file missing column %q", name)
		}
	}

	c.logger.Info("cleaning started", "path", rawPath, "raw_rows", len(records)-1)

	var (
		cleaned          [][]string
		droppedTimestamp int
		droppedStationID int
		defaultedCounts  int
		clampedCounts    int
	)

	for i, row := range records[1:] {
		if i%100_000 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}

		rec, flags, err := domain.ParseRawRow(cols, row)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrBadTimestamp):
				droppedTimestamp++
				c.metrics.RowsDropped.WithLabelValues("timestamp").Inc()
			case errors.Is(err, domain.ErrBadStationID):
				droppedStationID++
				c.metrics.RowsDropped.WithLabelValues("station_id").Inc()
			default:
				droppedTimestamp++
				c.metrics.RowsDropped.WithLabelValues("timestamp").Inc()
			}
			c.logger.Debug("dropping raw row", "row", i+1, "error", err)
			continue
		}

		if flags.RidershipDefaulted {
			defaultedCounts++
			c.metrics.RidershipDefaulted.Inc()
		}
		if flags.RidershipClamped {
			clampedCounts++
			c.metrics.RidershipClamped.Inc()
		}

		cleaned = append(cleaned, rec.CleanedRow())
	}

	c.metrics.RowsCleaned.Add(float64(len(cleaned)))

	if err := writeCSV(cleanedPath, domain.CleanedHeader, cleaned); err != nil {
		return fmt.Errorf("write cleaned file: %w", err)
	}

	c.logger.Info("cleaning complete",
		"rows", len(cleaned),
		"dropped_timestamp", droppedTimestamp,
		"dropped_station_id", droppedStationID,
		"ridership_defaulted", defaultedCounts,
		"ridership_clamped", clampedCounts,
		"path", cleanedPath,
	)
	return nil
}
