package domain

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
)

// volumeNamespace scopes the name-based UUIDs of volume records.
var volumeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/couchcryptid/radar-basedata-etl/volume"))

// Summarize builds the published record of a decoded volume. path is the
// source file.
func Summarize(path string, vol *basedata.Volume) VolumeRecord {
	rec := VolumeRecord{
		File:        filepath.Base(path),
		Variant:     vol.Variant.String(),
		ScanType:    string(vol.ScanType),
		Site:        vol.Site,
		NRays:       vol.NRays(),
		NSweeps:     vol.NSweeps(),
		Gates:       len(vol.Range),
		SplitCuts:   vol.SplitCuts,
		ProcessedAt: clock.Now(),
	}
	if len(vol.Range) > 0 {
		rec.GateSpacing = vol.Range[0]
	}
	if len(vol.Time) > 0 {
		rec.StartTime = vol.Time[0]
		rec.EndTime = vol.Time[len(vol.Time)-1]
	}

	rays := vol.RaysPerSweep()
	rec.Sweeps = make([]SweepSummary, vol.NSweeps())
	for i := range rec.Sweeps {
		rec.Sweeps[i] = SweepSummary{
			Index:            i,
			FixedAngle:       vol.FixedAngle[i],
			StartRay:         vol.SweepStart[i],
			EndRay:           vol.SweepEnd[i],
			Rays:             rays[i],
			Bins:             vol.BinsPerSweep[i],
			NyquistVelocity:  vol.NyquistVelocity[i],
			UnambiguousRange: vol.UnambiguousRange[i],
		}
	}

	for _, name := range vol.FieldNames() {
		rec.Fields = append(rec.Fields, summarizeField(name, vol.Fields[name]))
	}
	rec.ID = generateID(rec.Site.Station, rec.Variant, rec.StartTime, rec.File)
	return rec
}

func summarizeField(name string, f *basedata.Field) FieldSummary {
	valid := make([]float64, 0, len(f.Data))
	for _, v := range f.Data {
		if !basedata.IsMissing(v) {
			valid = append(valid, float64(v))
		}
	}
	s := FieldSummary{Name: name, ValidGates: len(valid), TotalGates: len(f.Data)}
	if len(f.Data) > 0 {
		s.Coverage = float64(len(valid)) / float64(len(f.Data))
	}
	if len(valid) > 0 {
		s.Min = floats.Min(valid)
		s.Max = floats.Max(valid)
		s.Mean = stat.Mean(valid, nil)
	}
	return s
}

// generateID derives a stable volume ID so a re-processed file republishes
// under the same key.
func generateID(station, variant string, start time.Time, file string) string {
	key := station + "|" + variant + "|" + start.UTC().Format(time.RFC3339Nano) + "|" + file
	return uuid.NewSHA1(volumeNamespace, []byte(key)).String()
}
