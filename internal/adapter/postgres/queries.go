package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
)

// Query names used as metric labels and cache keys.
const (
	QueryDaily    = "daily"
	QueryForecast = "forecast"
	QueryStations = "stations"
)

// Store implements domain.RidershipSource against a live database.
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB, metrics *observability.Metrics) *Store {
	return &Store{db: db, metrics: metrics}
}

// DailyRidership sums hourly totals per calendar day, ordered by day.
func (s *Store) DailyRidership(ctx context.Context, table string) ([]domain.DailyRidership, error) {
	query := fmt.Sprintf(`
		SELECT DATE_TRUNC('day', transit_timestamp) AS day,
		       SUM(hourly_ridership_total) AS total_ridership
		FROM %s
		GROUP BY day
		ORDER BY day`, table)

	rows, err := s.query(ctx, QueryDaily, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyRidership
	for rows.Next() {
		var d domain.DailyRidership
		if err := rows.Scan(&d.Day, &d.Ridership); err != nil {
			s.metrics.QueryErrors.WithLabelValues(QueryDaily).Inc()
			return nil, fmt.Errorf("scan daily ridership: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ForecastPoints returns the forecast table's rows ordered by timestamp.
func (s *Store) ForecastPoints(ctx context.Context, table string) ([]domain.ForecastPoint, error) {
	query := fmt.Sprintf(`
		SELECT forecast_timestamp, yhat
		FROM %s
		ORDER BY forecast_timestamp`, table)

	rows, err := s.query(ctx, QueryForecast, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ForecastPoint
	for rows.Next() {
		var p domain.ForecastPoint
		if err := rows.Scan(&p.Timestamp, &p.Yhat); err != nil {
			s.metrics.QueryErrors.WithLabelValues(QueryForecast).Inc()
			return nil, fmt.Errorf("scan forecast point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StationTotals returns aggregate ridership per station, busiest first.
func (s *Store) StationTotals(ctx context.Context, table string) ([]domain.StationTotal, error) {
	query := fmt.Sprintf(`
		SELECT station_name, latitude, longitude,
		       SUM(hourly_ridership_total) AS total_ridership
		FROM %s
		GROUP BY station_name, latitude, longitude
		ORDER BY total_ridership DESC`, table)

	rows, err := s.query(ctx, QueryStations, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StationTotal
	for rows.Next() {
		var st domain.StationTotal
		if err := rows.Scan(&st.StationName, &st.Latitude, &st.Longitude, &st.TotalRidership); err != nil {
			s.metrics.QueryErrors.WithLabelValues(QueryStations).Inc()
			return nil, fmt.Errorf("scan station total: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, name, query string) (*sql.Rows, error) {
	start := clock.Now()
	rows, err := s.db.QueryContext(ctx, query)
	s.metrics.QueryDuration.WithLabelValues(name).Observe(clock.Since(start).Seconds())
	if err != nil {
		s.metrics.QueryErrors.WithLabelValues(name).Inc()
		return nil, fmt.Errorf("%s query: %w", name, err)
	}
	return rows, nil
}

// UnavailableSource satisfies domain.RidershipSource when the database could
// not be reached at startup. Every method returns the original connection
// error, so each dashboard section degrades with the real cause.
type UnavailableSource struct {
	err error
}

// NewUnavailableSource wraps the connection error behind the source interface.
func NewUnavailableSource(err error) *UnavailableSource {
	return &UnavailableSource{err: err}
}

func (u *UnavailableSource) DailyRidership(context.Context, string) ([]domain.DailyRidership, error) {
	return nil, fmt.Errorf("database unavailable: %w", u.err)
}

func (u *UnavailableSource) ForecastPoints(context.Context, string) ([]domain.ForecastPoint, error) {
	return nil, fmt.Errorf("database unavailable: %w", u.err)
}

func (u *UnavailableSource) StationTotals(context.Context, string) ([]domain.StationTotal, error) {
	return nil, fmt.Errorf("database unavailable: %w", u.err)
}

var _ domain.RidershipSource = (*Store)(nil)
var _ domain.RidershipSource = (*UnavailableSource)(nil)
