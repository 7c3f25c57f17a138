package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw CSV column names as exported by the Socrata resource endpoint.
const (
	RawColTimestamp = "transit_timestamp"
	RawColStationID = "station_complex_id"
	RawColStation   = "station_complex"
	RawColBorough   = "borough"
	RawColLatitude  = "latitude"
	RawColLongitude = "longitude"
	RawColRidership = "ridership"
)

// Per-row drop reasons. Malformed timestamps and station ids drop the row;
// everything else is a value default, never a drop.
var (
	ErrBadTimestamp = errors.New("unparseable transit timestamp")
	ErrBadStationID = errors.New("non-numeric station id")
)

// timestampLayouts are tried in order. Socrata CSV exports use the first.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var (
	amRushHours = map[int]bool{6: true, 7: true, 8: true, 9: true}
	pmRushHours = map[int]bool{16: true, 17: true, 18: true, 19: true}
)

// RowFlags reports value-level repairs applied while parsing a raw row.
type RowFlags struct {
	RidershipDefaulted bool // unparseable count replaced with zero
	RidershipClamped   bool // negative count clamped to zero
}

// ParseTimestamp parses a raw transit timestamp, trying each known layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// ParseRawRow converts one raw CSV row into a RidershipRecord with derived
// features populated. cols maps raw column names to their index in row.
// The error wraps ErrBadTimestamp or ErrBadStationID when the row must be
// dropped; any other malformed value is defaulted, never fatal.
func ParseRawRow(cols map[string]int, row []string) (RidershipRecord, RowFlags, error) {
	var flags RowFlags

	ts, err := ParseTimestamp(field(cols, row, RawColTimestamp))
	if err != nil {
		return RidershipRecord{}, flags, err
	}

	// Source identifiers like "TRAM1" must drop the row, not survive as a
	// zero id. Float syntax ("444.0") is accepted because some exports
	// render the id that way.
	rawID := strings.TrimSpace(field(cols, row, RawColStationID))
	stationID, err := parseStationID(rawID)
	if err != nil {
		return RidershipRecord{}, flags, err
	}

	ridership, flags := parseRidership(field(cols, row, RawColRidership))

	rec := RidershipRecord{
		Timestamp:   ts,
		StationID:   stationID,
		StationName: strings.TrimSpace(field(cols, row, RawColStation)),
		Borough:     strings.TrimSpace(field(cols, row, RawColBorough)),
		Latitude:    parseFloatOrZero(field(cols, row, RawColLatitude)),
		Longitude:   parseFloatOrZero(field(cols, row, RawColLongitude)),
		Ridership:   ridership,
	}

	return DeriveFeatures(rec), flags, nil
}

// DeriveFeatures fills the calendar and rush-hour fields from rec.Timestamp.
// All outputs are pure functions of the timestamp.
func DeriveFeatures(rec RidershipRecord) RidershipRecord {
	ts := rec.Timestamp
	rec.Date = ts.Format("2006-01-02")
	rec.Hour = ts.Hour()
	rec.DayOfWeekNum = (int(ts.Weekday()) + 6) % 7 // Monday=0, Sunday=6
	rec.DayOfWeekName = ts.Weekday().String()
	rec.Month = int(ts.Month())
	rec.MonthName = ts.Month().String()
	rec.Year = ts.Year()
	rec.IsWeekend = rec.DayOfWeekNum == 5 || rec.DayOfWeekNum == 6
	rec.IsAMRush = amRushHours[rec.Hour]
	rec.IsPMRush = pmRushHours[rec.Hour]
	return rec
}

func parseStationID(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadStationID, s)
}

// parseRidership parses a count, defaulting unparseable values to zero and
// clamping negatives to zero.
func parseRidership(s string) (int, RowFlags) {
	var flags RowFlags

	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		flags.RidershipDefaulted = true
		return 0, flags
	}
	if f < 0 {
		flags.RidershipClamped = true
		return 0, flags
	}
	return int(f), flags
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
