// Package geo resolves US postal codes to coordinates and computes
// great-circle distances. The postal-code table is compiled into the binary;
// resolution is an exact-match map lookup with no network calls.
package geo

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

//go:embed zipdata/zip_coordinates.csv
var zipData string

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver maps postal codes to coordinates using a static table.
type Resolver struct {
	table map[string]Coordinates
}

// NewResolver parses the embedded postal-code table.
func NewResolver() (*Resolver, error) {
	return newResolverFromCSV(zipData)
}

func newResolverFromCSV(data string) (*Resolver, error) {
	r := csv.NewReader(strings.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse zip table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("zip table is empty")
	}

	table := make(map[string]Coordinates, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) != 5 {
			return nil, fmt.Errorf("zip table row %d: expected 5 fields, got %d", i+2, len(rec))
		}
		lat, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("zip table row %d: latitude: %w", i+2, err)
		}
		lon, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("zip table row %d: longitude: %w", i+2, err)
		}
		table[rec[0]] = Coordinates{Latitude: lat, Longitude: lon}
	}

	return &Resolver{table: table}, nil
}

// Resolve looks up the coordinates for a postal code. The second return
// value is false when the code is not in the table. A miss is not an error:
// callers exclude the record from distance computation instead of failing.
func (r *Resolver) Resolve(zipCode string) (Coordinates, bool) {
	c, ok := r.table[strings.TrimSpace(zipCode)]
	return c, ok
}

// Size returns the number of postal codes in the table.
func (r *Resolver) Size() int {
	return len(r.table)
}
