package domain

import "context"

// RidershipSource serves the dashboard's three read models. The postgres
// adapter implements it; the cache decorator wraps it.
type RidershipSource interface {
	// DailyRidership returns hourly totals summed per calendar day, ordered by day.
	DailyRidership(ctx context.Context, table string) ([]DailyRidership, error)

	// ForecastPoints returns the external forecast rows ordered by timestamp.
	ForecastPoints(ctx context.Context, table string) ([]ForecastPoint, error)

	// StationTotals returns aggregate ridership per station with coordinates,
	// ordered by total descending.
	StationTotals(ctx context.Context, table string) ([]StationTotal, error)
}
