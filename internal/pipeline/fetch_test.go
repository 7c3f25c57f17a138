package pipeline_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
	"github.com/couchcryptid/mta-ridership-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = []string{"transit_timestamp", "station_complex_id", "station_complex", "borough", "latitude", "longitude", "ridership"}

// mockPageClient serves pages from a fixed pool of rows, optionally capping
// each page below the requested limit or failing at a given request index.
type mockPageClient struct {
	totalRows   int
	pageCaps    map[int]int // request index -> max rows returned
	failAt      int         // request index that errors; -1 disables
	requests    []int       // limits requested, in order
	lastOffsets []int
}

func newMockPageClient(totalRows int) *mockPageClient {
	return &mockPageClient{totalRows: totalRows, failAt: -1}
}

func (m *mockPageClient) FetchPage(_ context.Context, limit, offset int) ([]string, [][]string, error) {
	idx := len(m.requests)
	m.requests = append(m.requests, limit)
	m.lastOffsets = append(m.lastOffsets, offset)

	if idx == m.failAt {
		return nil, nil, errors.New("boom")
	}

	n := limit
	if capped, ok := m.pageCaps[idx]; ok && capped < n {
		n = capped
	}
	if remaining := m.totalRows - offset; remaining < n {
		n = remaining
	}
	if n <= 0 {
		return testHeader, nil, nil
	}

	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			"2024-01-06T07:00:00.000",
			fmt.Sprintf("%d", offset+i),
			"Roosevelt Av", "Queens", "40.74", "-73.89", "1",
		}
	}
	return testHeader, rows, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFetcher(client pipeline.PageClient, pageSize int) *pipeline.Fetcher {
	return pipeline.NewFetcher(client, pageSize, 0, testLogger(), observability.NewMetricsForTesting())
}

func readRawFile(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0], records[1:]
}

func TestFetcher_BudgetSplitsIntoExactPages(t *testing.T) {
	client := newMockPageClient(500_000)
	f := newFetcher(client, 50_000)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 120_000, out)
	require.NoError(t, err)

	// 120k budget at 50k per page: 50k, 50k, then a final 20k request.
	assert.Equal(t, []int{50_000, 50_000, 20_000}, client.requests)
	assert.Equal(t, []int{0, 50_000, 100_000}, client.lastOffsets)

	header, rows := readRawFile(t, out)
	assert.Equal(t, testHeader, header)
	assert.Len(t, rows, 120_000)
}

func TestFetcher_ShortPageStopsPagination(t *testing.T) {
	client := newMockPageClient(500_000)
	client.pageCaps = map[int]int{1: 30_000}
	f := newFetcher(client, 50_000)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 120_000, out)
	require.NoError(t, err)

	// The short second page signals end of data; no third request.
	assert.Equal(t, []int{50_000, 50_000}, client.requests)

	_, rows := readRawFile(t, out)
	assert.Len(t, rows, 80_000)
}

func TestFetcher_EndOfDataBeforeBudget(t *testing.T) {
	client := newMockPageClient(70)
	f := newFetcher(client, 50)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 1000, out)
	require.NoError(t, err)

	_, rows := readRawFile(t, out)
	assert.Len(t, rows, 70)
}

func TestFetcher_OffsetAdvancesByRowsReturned(t *testing.T) {
	client := newMockPageClient(200)
	client.pageCaps = map[int]int{0: 30}
	f := newFetcher(client, 50)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 1000, out)
	require.NoError(t, err)

	// First page is short, which ends the run after one request; the
	// offset for that request must be 0.
	assert.Equal(t, []int{0}, client.lastOffsets)
	_, rows := readRawFile(t, out)
	assert.Len(t, rows, 30)
}

func TestFetcher_PageErrorAbortsRun(t *testing.T) {
	client := newMockPageClient(500_000)
	client.failAt = 1
	f := newFetcher(client, 50_000)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 120_000, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 50000")

	// No partial file: pages already accumulated are discarded.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetcher_EmptySourceIsError(t *testing.T) {
	client := newMockPageClient(0)
	f := newFetcher(client, 50)
	out := filepath.Join(t.TempDir(), "raw.csv")

	err := f.Run(context.Background(), 1000, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data downloaded")
}

func TestFetcher_CreatesParentDirectories(t *testing.T) {
	client := newMockPageClient(10)
	f := newFetcher(client, 50)
	out := filepath.Join(t.TempDir(), "data", "raw", "raw.csv")

	err := f.Run(context.Background(), 10, out)
	require.NoError(t, err)

	_, rows := readRawFile(t, out)
	assert.Len(t, rows, 10)
}

func TestFetcher_ContextCancelledDuringDelay(t *testing.T) {
	client := newMockPageClient(500)
	f := pipeline.NewFetcher(client, 100, 10_000_000_000, testLogger(), observability.NewMetricsForTesting())
	out := filepath.Join(t.TempDir(), "raw.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Run(ctx, 500, out)
	require.Error(t, err)
}
