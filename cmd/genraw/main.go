// Command genraw generates a synthetic raw ridership CSV shaped like a
// Socrata download, for exercising the clean and load stages without hitting
// the live API. A fixed seed makes the output reproducible. A small share of
// rows carries the dirty values the cleaner must handle: the TRAM1 station
// id, negative ridership, and unparseable ridership.
//
// Usage:
//
//	go run ./cmd/genraw -out data/raw/mta_hourly_ridership.csv -rows 10000
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
)

type station struct {
	id      string
	name    string
	borough string
	lat     float64
	lon     float64
}

var stations = []station{
	{id: "611", name: "Times Sq-42 St (N,Q,R,W,S,1,2,3,7)/42 St (A,C,E)", borough: "Manhattan", lat: 40.7559, lon: -73.9871},
	{id: "610", name: "Grand Central-42 St (S,4,5,6,7)", borough: "Manhattan", lat: 40.7518, lon: -73.9766},
	{id: "447", name: "74-Broadway (7)/Jackson Hts-Roosevelt Av (E,F,M,R)", borough: "Queens", lat: 40.7466, lon: -73.8912},
	{id: "617", name: "Atlantic Av-Barclays Ctr (B,D,N,Q,R,2,3,4,5)", borough: "Brooklyn", lat: 40.6844, lon: -73.9777},
	{id: "471", name: "161 St-Yankee Stadium (B,D,4)", borough: "Bronx", lat: 40.8279, lon: -73.9258},
	{id: "1", name: "South Ferry (1)", borough: "Manhattan", lat: 40.7013, lon: -74.0135},
	{id: "2", name: "Rector St (1)", borough: "Manhattan", lat: 40.7075, lon: -74.0134},
}

// tram is the one station complex with a non-numeric id in the live dataset.
var tram = station{id: "TRAM1", name: "Roosevelt Island Tram", borough: "Manhattan", lat: 40.7614, lon: -73.9502}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw CSV")
	rows := flag.Int("rows", 10_000, "number of rows to generate")
	seed := flag.Int64("seed", 42, "random seed")
	start := flag.String("start", "2024-01-01", "first day of generated data (YYYY-MM-DD)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	startDay, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	records := make([][]string, 0, *rows)
	ts := startDay
	for i := 0; i < *rows; i++ {
		st := stations[i%len(stations)]
		ridership := strconv.Itoa(rng.Intn(3000))

		// Sprinkle in the dirty values the cleaner has to handle.
		switch {
		case i%97 == 0:
			st = tram
		case i%131 == 0:
			ridership = strconv.Itoa(-1 - rng.Intn(50))
		case i%173 == 0:
			ridership = "n/a"
		}

		records = append(records, []string{
			ts.Format("2006-01-02T15:04:05.000"),
			st.id,
			st.name,
			st.borough,
			strconv.FormatFloat(st.lat, 'f', 4, 64),
			strconv.FormatFloat(st.lon, 'f', 4, 64),
			ridership,
		})

		if (i+1)%len(stations) == 0 {
			ts = ts.Add(time.Hour)
		}
	}

	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing raw CSV: %w", err)
	}

	log.Printf("wrote %d rows to %s (seed %d, starting %s)", len(records), *out, *seed, startDay.Format("2006-01-02"))
	return nil
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		domain.RawColTimestamp,
		domain.RawColStationID,
		domain.RawColStation,
		domain.RawColBorough,
		domain.RawColLatitude,
		domain.RawColLongitude,
		domain.RawColRidership,
	}
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
