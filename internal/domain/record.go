package domain

import "time"

// RidershipRecord is one cleaned (station, hour) observation with its
// derived calendar and rush-hour features.
type RidershipRecord struct {
	Timestamp   time.Time
	StationID   int
	StationName string
	Borough     string
	Latitude    float64
	Longitude   float64
	Ridership   int

	// Derived from Timestamp.
	Date          string // YYYY-MM-DD
	Hour          int
	DayOfWeekNum  int // Monday=0, Sunday=6
	DayOfWeekName string
	Month         int
	MonthName     string
	Year          int
	IsWeekend     bool
	IsAMRush      bool
	IsPMRush      bool
}

// DailyRidership is one day of summed ridership, as returned by the
// daily-aggregation query.
type DailyRidership struct {
	Day       time.Time
	Ridership int64
}

// ForecastPoint is one row of the external forecast table, consumed opaquely.
type ForecastPoint struct {
	Timestamp time.Time
	Yhat      float64
}

// StationTotal is a station's aggregate ridership with its coordinates,
// recomputed by query for map rendering. Not a stored entity.
type StationTotal struct {
	StationName    string
	Latitude       float64
	Longitude      float64
	TotalRidership int64
}
