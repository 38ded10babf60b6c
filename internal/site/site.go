// Package site resolves radar station identifiers to static site metadata.
package site

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotFound is returned by a Table that has no entry for a station.
var ErrNotFound = errors.New("site: station not found")

// Site is the static metadata of one radar.
type Site struct {
	Station   string  `json:"station"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`  // m
	Frequency float64 `json:"frequency"` // GHz
}

// Table looks up site metadata by station identifier.
type Table interface {
	Lookup(ctx context.Context, station string) (Site, error)
}

var stationPattern = regexp.MustCompile(`Z\d{4}`)

// StationFromPath extracts the station identifier (e.g. "Z9250") embedded in
// a base data file name. It returns "" when the name carries none.
func StationFromPath(path string) string {
	return stationPattern.FindString(filepath.Base(path))
}

// StaticTable is an in-memory Table.
type StaticTable map[string]Site

// Lookup implements Table.
func (t StaticTable) Lookup(_ context.Context, station string) (Site, error) {
	s, ok := t[station]
	if !ok {
		return Site{}, fmt.Errorf("%w: %s", ErrNotFound, station)
	}
	return s, nil
}

// NewStaticTable indexes sites by station.
func NewStaticTable(sites []Site) StaticTable {
	t := make(StaticTable, len(sites))
	for _, s := range sites {
		t[s.Station] = s
	}
	return t
}

var csvColumns = []string{"station", "latitude", "longitude", "altitude", "frequency"}

// ParseCSV reads a site table with a header row. The columns station,
// latitude, longitude, altitude (m) and frequency (GHz) are required; name
// is optional. Column order is free.
func ParseCSV(r io.Reader) ([]Site, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv: missing header row")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range csvColumns {
		if _, ok := colIdx[c]; !ok {
			return nil, fmt.Errorf("read csv: missing column %q", c)
		}
	}

	sites := make([]Site, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		s := Site{Station: strings.TrimSpace(row[colIdx["station"]])}
		if s.Station == "" {
			return nil, fmt.Errorf("line %d: empty station", line)
		}
		if i, ok := colIdx["name"]; ok {
			s.Name = strings.TrimSpace(row[i])
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{"latitude", &s.Latitude},
			{"longitude", &s.Longitude},
			{"altitude", &s.Altitude},
			{"frequency", &s.Frequency},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[colIdx[f.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		sites = append(sites, s)
	}
	return sites, nil
}
