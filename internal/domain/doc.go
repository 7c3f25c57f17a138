// Package domain models MTA subway hourly ridership data.
//
// # Data Source
//
// Rows originate from the NY Open Data (Socrata) dataset "MTA Subway Hourly
// Ridership" (id wujg-7c2s), exported as CSV via the resource endpoint with
// $limit/$offset pagination. Each row is one (station complex, hour) pair.
//
// # Source Conventions
//
// Timestamps:
//
//	Socrata CSV exports render timestamps as "2006-01-02T15:04:05.000".
//	Hand-fed exports sometimes use a space separator or omit the millisecond
//	suffix, so parsing tries those layouts too. Rows whose timestamp parses
//	under none of them are dropped.
//
// Station identifiers:
//
//	station_complex_id is numeric for subway complexes, but the dataset also
//	contains the Roosevelt Island Tramway under the code "TRAM1" (and "TRAM2").
//	Non-numeric identifiers drop the whole row; station-level analysis keys on
//	the numeric id, and a null id would poison every downstream GROUP BY.
//
// Ridership counts:
//
//	The ridership column is a count of entries and can never legitimately be
//	negative. Unparseable values default to zero and negative values are
//	clamped to zero; unlike identifiers, a zeroed count leaves the row usable.
//
// # Derived Features
//
// Calendar and rush-hour features derive deterministically from the parsed
// timestamp: date, hour, weekday index (Monday=0) and name, month index and
// name, year, weekend flag (Saturday/Sunday), AM rush (hours 6-9), PM rush
// (hours 16-19). Nothing derives from the time of the run, so cleaning the
// same input twice produces byte-identical output.
package domain
