package pipeline_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
	"github.com/couchcryptid/mta-ridership-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawFixture = `transit_timestamp,station_complex_id,station_complex,borough,latitude,longitude,ridership
2024-01-06T07:00:00.000,444,Roosevelt Av,Queens,40.7466,-73.8912,123
2024-01-06T08:00:00.000,TRAM1,Roosevelt Island Tram,Manhattan,40.7614,-73.9502,50
2024-01-06T09:00:00.000,1,South Ferry,Manhattan,40.7013,-74.0135,-5
not-a-timestamp,2,Rector St,Manhattan,40.7075,-74.0134,10
2024-01-08T17:00:00.000,2,Rector St,Manhattan,40.7075,-74.0134,garbage
`

func writeRawFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func newCleaner() *pipeline.Cleaner {
	return pipeline.NewCleaner(testLogger(), observability.NewMetricsForTesting())
}

func readCleanedFile(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0], records[1:]
}

func TestCleaner_DropAndDefaultPolicies(t *testing.T) {
	rawPath := writeRawFixture(t, rawFixture)
	cleanedPath := filepath.Join(t.TempDir(), "cleaned.csv")

	err := newCleaner().Run(context.Background(), rawPath, cleanedPath)
	require.NoError(t, err)

	header, rows := readCleanedFile(t, cleanedPath)
	assert.Equal(t, domain.CleanedHeader, header)

	// 5 raw rows: TRAM1 and the bad timestamp are dropped, the rest survive.
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.NotEqual(t, "TRAM1", row[1])
	}

	// Negative ridership clamps to zero.
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "0", rows[1][6])

	// Unparseable ridership defaults to zero, row retained.
	assert.Equal(t, "2", rows[2][1])
	assert.Equal(t, "0", rows[2][6])
}

func TestCleaner_DerivedFeatures(t *testing.T) {
	rawPath := writeRawFixture(t, rawFixture)
	cleanedPath := filepath.Join(t.TempDir(), "cleaned.csv")

	err := newCleaner().Run(context.Background(), rawPath, cleanedPath)
	require.NoError(t, err)

	_, rows := readCleanedFile(t, cleanedPath)
	require.Len(t, rows, 3)

	// Row 0: Saturday 07:00 is a weekend AM rush hour.
	first, err := domain.ParseCleanedRow(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "Saturday", first.DayOfWeekName)
	assert.True(t, first.IsWeekend)
	assert.True(t, first.IsAMRush)
	assert.False(t, first.IsPMRush)

	// Row 2: Monday 17:00 is a weekday PM rush hour.
	last, err := domain.ParseCleanedRow(rows[2])
	require.NoError(t, err)
	assert.False(t, last.IsWeekend)
	assert.False(t, last.IsAMRush)
	assert.True(t, last.IsPMRush)
}

func TestCleaner_Idempotent(t *testing.T) {
	rawPath := writeRawFixture(t, rawFixture)
	dir := t.TempDir()
	first := filepath.Join(dir, "cleaned_1.csv")
	second := filepath.Join(dir, "cleaned_2.csv")

	c := newCleaner()
	require.NoError(t, c.Run(context.Background(), rawPath, first))
	require.NoError(t, c.Run(context.Background(), rawPath, second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "cleaning the same input twice must be byte-identical")
}

func TestCleaner_MissingRawFile(t *testing.T) {
	err := newCleaner().Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCleaner_MissingRequiredColumn(t *testing.T) {
	raw := strings.Replace(rawFixture, "station_complex_id", "station_code", 1)
	rawPath := writeRawFixture(t, raw)

	err := newCleaner().Run(context.Background(), rawPath, filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station_complex_id")
}

func TestCleaner_CreatesOutputDirectory(t *testing.T) {
	rawPath := writeRawFixture(t, rawFixture)
	cleanedPath := filepath.Join(t.TempDir(), "data", "processed", "cleaned.csv")

	err := newCleaner().Run(context.Background(), rawPath, cleanedPath)
	require.NoError(t, err)

	_, rows := readCleanedFile(t, cleanedPath)
	assert.Len(t, rows, 3)
}
