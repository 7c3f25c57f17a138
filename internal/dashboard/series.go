// Package dashboard renders the ridership dashboard: a daily ridership line
// chart with the forecast overlaid, a station map, and a busiest-stations
// table. Each section degrades independently when its query fails.
package dashboard

import (
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
)

// Default map center over midtown Manhattan, used when no station
// coordinates are available.
const (
	DefaultCenterLat = 40.75
	DefaultCenterLon = -74.00
)

// RidershipSeries is the combined chart input: the historical daily totals
// plus the forecast points that extend beyond them.
type RidershipSeries struct {
	Historical []domain.DailyRidership
	Forecast   []domain.ForecastPoint

	// ForecastStart is the timestamp of the first retained forecast point,
	// zero when no forecast extends past the historical data.
	ForecastStart time.Time
}

// CombineSeries merges historical and forecast data for charting. Forecast
// points that do not extend past the last historical day are discarded, so
// the overlay always begins where the historical line ends.
func CombineSeries(historical []domain.DailyRidership, forecast []domain.ForecastPoint) RidershipSeries {
	s := RidershipSeries{Historical: historical}

	if len(historical) == 0 {
		s.Forecast = forecast
	} else {
		boundary := historical[len(historical)-1].Day
		for _, p := range forecast {
			if !p.Timestamp.After(boundary) {
				continue
			}
			s.Forecast = append(s.Forecast, p)
		}
	}

	if len(s.Forecast) > 0 {
		s.ForecastStart = s.Forecast[0].Timestamp
	}
	return s
}

// MapCenter returns the mean station coordinates, falling back to the
// default center when no stations are available.
func MapCenter(stations []domain.StationTotal) (lat, lon float64) {
	if len(stations) == 0 {
		return DefaultCenterLat, DefaultCenterLon
	}
	for _, st := range stations {
		lat += st.Latitude
		lon += st.Longitude
	}
	n := float64(len(stations))
	return lat / n, lon / n
}
