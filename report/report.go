// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// Package report persists resolution results: the CSV report with one row per
// hostname, the sorted list of valid hostnames, and the naming of the per-run
// output directory. The multiple addresses of a hostname are uniformly joined
// into a single ", "-delimited field.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/siemens/epdgdig/dig"
)

// Canonical file names inside a run's output directory.
const (
	ResultsFile    = "hostname_resolution_results.csv"
	ValidNamesFile = "valid_names.txt"
	AuditLogFile   = "name_resolution_log.log"
)

// csvHeader is the column layout of the results CSV.
var csvHeader = []string{"Hostname", "IPAddresses", "CountryCode", "Network"}

// addressSeparator joins the addresses of one hostname into a single field.
const addressSeparator = ", "

// WriteCSV writes the resolution records as CSV to w, sorted alphanumerically
// by hostname. Records with an empty address list are included with an empty
// address field.
func WriteCSV(w io.Writer, records []dig.ResolutionRecord) error {
	sorted := make([]dig.ResolutionRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Hostname < sorted[b].Hostname })

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range sorted {
		row := []string{
			rec.Hostname,
			strings.Join(rec.Addresses, addressSeparator),
			rec.CountryCode,
			rec.Network,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a results CSV previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]dig.ResolutionRecord, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("results CSV without header row")
	}
	records := make([]dig.ResolutionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("malformed results row %v", row)
		}
		var addrs []string
		if row[1] != "" {
			addrs = strings.Split(row[1], addressSeparator)
		}
		records = append(records, dig.ResolutionRecord{
			Hostname:    row[0],
			Addresses:   addrs,
			CountryCode: row[2],
			Network:     row[3],
		})
	}
	return records, nil
}

// WriteValidNames writes the hostnames with at least one resolved address,
// one per line and sorted lexicographically.
func WriteValidNames(w io.Writer, names []string) error {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	for _, name := range sorted {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// OutputDir returns the name of a per-run output directory below base,
// incorporating the optional country-code filter and the run timestamp.
func OutputDir(base, countryCode string, now time.Time) string {
	stamp := now.Format("2006-01-02_15-04-05")
	if countryCode != "" {
		return filepath.Join(base, fmt.Sprintf("output_%s_%s", countryCode, stamp))
	}
	return filepath.Join(base, "output_"+stamp)
}

// Save creates the output directory if necessary and writes both the results
// CSV and the valid-names file into it.
func Save(dir string, records []dig.ResolutionRecord, validNames []string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	if err := writeFile(filepath.Join(dir, ResultsFile), func(w io.Writer) error {
		return WriteCSV(w, records)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ValidNamesFile), func(w io.Writer) error {
		return WriteValidNames(w, validNames)
	})
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return f.Close()
}
