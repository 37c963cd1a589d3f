// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// Package source adapts the upstream operator table: it loads rows of mobile
// network operators ({MCC, MNC, ISO, Country, CountryCode, Network}) from CSV
// and derives the resolution targets for them. Where the table comes from
// (a download of the public MCC/MNC table, an export, ...) is none of our
// business; we only require the columns named in the header row.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siemens/epdgdig/dig"
	"github.com/siemens/epdgdig/plmn"
)

// Operator is one row of the operator table.
type Operator struct {
	MCC         string `json:"mcc"`
	MNC         string `json:"mnc"`
	ISO         string `json:"iso"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Network     string `json:"network"`
}

// PLMN returns the operator's parsed PLMN identity.
func (op Operator) PLMN() (plmn.PLMN, error) {
	return plmn.Parse(op.MCC, op.MNC)
}

// columns maps the header names of the operator table to row indices. Header
// matching is case-insensitive and ignores spaces, so both "CountryCode" and
// "Country Code" work.
var columns = map[string]int{
	"mcc":         0,
	"mnc":         1,
	"iso":         2,
	"country":     3,
	"countrycode": 4,
	"network":     5,
}

// Load reads the operator table from CSV. The first row must be a header
// naming at least the MCC, MNC, Country Code, and Network columns; additional
// columns are ignored.
func Load(r io.Reader) ([]Operator, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot read operator table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("operator table is empty")
	}
	idx := map[string]int{}
	for col, header := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", ""))
		if _, ok := columns[key]; ok {
			idx[key] = col
		}
	}
	for _, required := range []string{"mcc", "mnc", "countrycode", "network"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("operator table lacks %q column", required)
		}
	}
	field := func(row []string, key string) string {
		col, ok := idx[key]
		if !ok || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}
	operators := make([]Operator, 0, len(rows)-1)
	for _, row := range rows[1:] {
		operators = append(operators, Operator{
			MCC:         field(row, "mcc"),
			MNC:         field(row, "mnc"),
			ISO:         field(row, "iso"),
			Country:     field(row, "country"),
			CountryCode: field(row, "countrycode"),
			Network:     field(row, "network"),
		})
	}
	return operators, nil
}

// LoadFile reads the operator table from the named CSV file.
func LoadFile(path string) ([]Operator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open operator table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// FilterByCountryCode returns only the operators with the specified (calling)
// country code; an empty filter returns all operators.
func FilterByCountryCode(operators []Operator, countryCode string) []Operator {
	if countryCode == "" {
		return operators
	}
	filtered := make([]Operator, 0, len(operators))
	for _, op := range operators {
		if op.CountryCode == countryCode {
			filtered = append(filtered, op)
		}
	}
	return filtered
}

// Targets derives the resolution targets for the given operators, mapping
// each operator's PLMN identity to its standardized ePDG hostname. Operators
// with malformed MCC/MNC codes are skipped.
func Targets(operators []Operator) []dig.ResolutionTarget {
	targets := make([]dig.ResolutionTarget, 0, len(operators))
	for _, op := range operators {
		p, err := op.PLMN()
		if err != nil {
			continue
		}
		targets = append(targets, dig.ResolutionTarget{
			Hostname:    p.EPDGHostname(),
			CountryCode: op.CountryCode,
			Network:     op.Network,
		})
	}
	return targets
}
