//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/adapter/postgres"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const cleanedFixture = `transit_timestamp,station_id,station_name,borough,latitude,longitude,hourly_ridership_total,date,hour,day_of_week_num,day_of_week_name,month,month_name,year,is_weekend,is_am_rush,is_pm_rush
2024-01-06 07:00:00,444,Roosevelt Av,Queens,40.7466,-73.8912,123,2024-01-06,7,5,Saturday,1,January,2024,true,true,false
2024-01-06 09:00:00,1,South Ferry,Manhattan,40.7013,-74.0135,40,2024-01-06,9,5,Saturday,1,January,2024,true,true,false
2024-01-08 17:00:00,2,Rector St,Manhattan,40.7075,-74.0134,10,2024-01-08,17,0,Monday,1,January,2024,false,false,true
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres spins up a disposable Postgres container and returns a DSN.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ridership_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func writeCleanedFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cleaned.csv")
	require.NoError(t, os.WriteFile(path, []byte(cleanedFixture), 0o644))
	return path
}

// TestReplaceLoadEndToEnd loads the same cleaned file twice and verifies the
// table holds exactly one copy, confirming replace rather than append
// semantics, then reads it back through the query layer.
func TestReplaceLoadEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	metrics := observability.NewMetricsForTesting()
	loader := postgres.NewLoader(db, 2, discardLogger(), metrics)
	path := writeCleanedFixture(t)

	require.NoError(t, loader.LoadFile(ctx, path, "hourly_ridership"))
	require.NoError(t, loader.LoadFile(ctx, path, "hourly_ridership"))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hourly_ridership").Scan(&count))
	assert.Equal(t, 3, count, "second load must replace, not append")

	store := postgres.NewStore(db, metrics)

	daily, err := store.DailyRidership(ctx, "hourly_ridership")
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, int64(163), daily[0].Ridership, "Jan 6 total")
	assert.Equal(t, int64(10), daily[1].Ridership, "Jan 8 total")
	assert.True(t, daily[0].Day.Before(daily[1].Day), "days ordered ascending")

	stations, err := store.StationTotals(ctx, "hourly_ridership")
	require.NoError(t, err)
	require.Len(t, stations, 3)
	assert.Equal(t, "Roosevelt Av", stations[0].StationName, "busiest station first")
	assert.Equal(t, int64(123), stations[0].TotalRidership)
}

// TestForecastQuery reads forecast rows written by an external process.
func TestForecastQuery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE hourly_ridership_forecasts (
		forecast_timestamp TIMESTAMP,
		yhat DOUBLE PRECISION
	)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO hourly_ridership_forecasts VALUES
		('2024-01-10 00:00:00', 210.5),
		('2024-01-09 00:00:00', 190.25)`)
	require.NoError(t, err)

	store := postgres.NewStore(db, observability.NewMetricsForTesting())
	points, err := store.ForecastPoints(ctx, "hourly_ridership_forecasts")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp), "points ordered by timestamp")
	assert.InDelta(t, 190.25, points[0].Yhat, 1e-9)
}

// TestLoadFailureKeepsPreviousContents aborts a load partway and verifies the
// live table still serves the previous data.
func TestLoadFailureKeepsPreviousContents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	metrics := observability.NewMetricsForTesting()
	loader := postgres.NewLoader(db, 2, discardLogger(), metrics)
	path := writeCleanedFixture(t)

	require.NoError(t, loader.LoadFile(ctx, path, "hourly_ridership"))

	// A cleaned file with a malformed row aborts before any table swap.
	broken := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte(
		"transit_timestamp,station_id\nbad,row\n"), 0o644))
	require.Error(t, loader.LoadFile(ctx, broken, "hourly_ridership"))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hourly_ridership").Scan(&count))
	assert.Equal(t, 3, count, "failed load must leave previous contents intact")
}
