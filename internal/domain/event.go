package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

// RawFile is a base data file discovered in the input directory and not yet
// processed.
type RawFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time

	// Commit records the final outcome of the file so it is not extracted
	// again. It may be nil.
	Commit func(ctx context.Context, outcome Outcome) error
}

// Outcome is the processing result of one file. Exactly one of Volume and
// Err is set.
type Outcome struct {
	Volume *VolumeRecord
	Err    error
}

// Status returns "ok" or "failed".
func (o Outcome) Status() string {
	if o.Err != nil {
		return "failed"
	}
	return "ok"
}

// SweepSummary describes one sweep of a decoded volume.
type SweepSummary struct {
	Index            int     `json:"index"`
	FixedAngle       float64 `json:"fixed_angle"`
	StartRay         int     `json:"start_ray"`
	EndRay           int     `json:"end_ray"`
	Rays             int     `json:"rays"`
	Bins             int     `json:"bins"`
	NyquistVelocity  float64 `json:"nyquist_velocity"`
	UnambiguousRange float64 `json:"unambiguous_range"`
}

// FieldSummary describes the valid-gate coverage and value range of one
// moment.
type FieldSummary struct {
	Name       string  `json:"name"`
	ValidGates int     `json:"valid_gates"`
	TotalGates int     `json:"total_gates"`
	Coverage   float64 `json:"coverage"`
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`
	Mean       float64 `json:"mean,omitempty"`
}

// VolumeRecord is the published description of one decoded volume scan.
type VolumeRecord struct {
	ID          string         `json:"id"`
	File        string         `json:"file"`
	Variant     string         `json:"variant"`
	ScanType    string         `json:"scan_type"`
	Site        site.Site      `json:"site"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	NRays       int            `json:"nrays"`
	NSweeps     int            `json:"nsweeps"`
	Gates       int            `json:"gates"`
	GateSpacing float64        `json:"gate_spacing"` // m
	SplitCuts   int            `json:"split_cuts"`
	Sweeps      []SweepSummary `json:"sweeps"`
	Fields      []FieldSummary `json:"fields"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// VolumeFilter narrows a volume listing. Zero values match everything.
type VolumeFilter struct {
	Station string
	Limit   int
}
