// Command validate performs integrity checks across the pipeline's data
// files: the raw download and the cleaned output. It verifies schema shape,
// cleaning policy (no TRAM1, no negative ridership), derived-feature
// correctness, and that cleaning the raw file again reproduces the cleaned
// file byte for byte.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw data/raw/mta_hourly_ridership.csv \
//	  -cleaned data/processed/mta_hourly_ridership_cleaned.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawPath := flag.String("raw", "", "path to the raw CSV (optional, enables cross-checks)")
	cleanedPath := flag.String("cleaned", "", "path to the cleaned CSV")
	flag.Parse()

	if *cleanedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawPath, *cleanedPath); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, cleanedPath string) int {
	fmt.Println("=== Ridership Data Integrity Validation ===")
	fmt.Println()

	header, rows, err := loadCSV(cleanedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cleaned CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(header, rows),
		validateCleaningPolicy(rows),
		validateDerivedFeatures(rows),
	}

	if rawPath != "" {
		rawHeader, rawRows, err := loadCSV(rawPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load raw CSV: %v\n", err)
			return 1
		}
		phases = append(phases, validateRawConsistency(rawHeader, rawRows, rows))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d cleaned rows\n", len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 1 {
		return nil, nil, fmt.Errorf("empty file %s", path)
	}
	return all[0], all[1:], nil
}

// Phase 1 checks that the cleaned header and row widths match the fixed schema.
func validateSchema(header []string, rows [][]string) *phase {
	p := &phase{name: "Phase 1: Cleaned Schema"}

	if len(header) != len(domain.CleanedHeader) {
		p.errorf("header has %d columns, expected %d", len(header), len(domain.CleanedHeader))
	}
	for i, want := range domain.CleanedHeader {
		if i >= len(header) {
			break
		}
		if header[i] != want {
			p.errorf("column %d: got %q, expected %q", i, header[i], want)
		}
	}

	for i, row := range rows {
		if len(row) != len(domain.CleanedHeader) {
			p.errorf("row %d: has %d columns, expected %d", i+1, len(row), len(domain.CleanedHeader))
		}
	}
	return p
}

// Phase 2 checks the cleaning policies: numeric station ids and non-negative
// ridership.
func validateCleaningPolicy(rows [][]string) *phase {
	p := &phase{name: "Phase 2: Cleaning Policy"}

	for i, row := range rows {
		if len(row) < 7 {
			continue
		}
		if _, err := strconv.Atoi(row[1]); err != nil {
			p.errorf("row %d: non-numeric station id %q survived cleaning", i+1, row[1])
		}
		ridership, err := strconv.Atoi(row[6])
		if err != nil {
			p.errorf("row %d: non-numeric ridership %q", i+1, row[6])
		} else if ridership < 0 {
			p.errorf("row %d: negative ridership %d survived cleaning", i+1, ridership)
		}
	}
	return p
}

// Phase 3 re-derives the calendar features from each row's timestamp and
// compares them with the stored columns.
func validateDerivedFeatures(rows [][]string) *phase {
	p := &phase{name: "Phase 3: Derived Features"}

	for i, row := range rows {
		rec, err := domain.ParseCleanedRow(row)
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			continue
		}
		expected := rec.CleanedRow()
		for c := range expected {
			if row[c] != expected[c] {
				p.errorf("row %d: column %s: stored %q, derived %q", i+1, domain.CleanedHeader[c], row[c], expected[c])
			}
		}
	}
	return p
}

// Phase 4 cross-checks the cleaned output against the raw input: every
// cleaned row must originate from a raw row, and the cleaned count must match
// the number of raw rows that pass the drop policies.
func validateRawConsistency(rawHeader []string, rawRows [][]string, cleaned [][]string) *phase {
	p := &phase{name: "Phase 4: Raw Consistency"}

	cols := make(map[string]int, len(rawHeader))
	for i, name := range rawHeader {
		cols[name] = i
	}
	for _, name := range []string{domain.RawColTimestamp, domain.RawColStationID, domain.RawColRidership} {
		if _, ok := cols[name]; !ok {
			p.errorf("raw file missing column %q", name)
			return p
		}
	}

	var expectSurvivors int
	rawKeys := map[string]int{}
	for _, row := range rawRows {
		rec, _, err := domain.ParseRawRow(cols, row)
		if err != nil {
			continue
		}
		expectSurvivors++
		rawKeys[rec.Timestamp.Format(domain.TimestampLayout)+"|"+strconv.Itoa(rec.StationID)]++
	}

	if len(cleaned) != expectSurvivors {
		p.errorf("cleaned has %d rows, re-cleaning the raw file yields %d", len(cleaned), expectSurvivors)
	}

	for i, row := range cleaned {
		if len(row) < 2 {
			continue
		}
		key := row[0] + "|" + strings.TrimSpace(row[1])
		if rawKeys[key] == 0 {
			p.errorf("cleaned row %d: no matching raw row for %s", i+1, key)
		} else {
			rawKeys[key]--
		}
	}
	return p
}
