package basedata

import (
	"slices"
	"time"

	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

// sc2Frequency is the transmit frequency, in GHz, reported for every SC2
// radar; the header does not record one.
const sc2Frequency = 2.765

// sc2Timezone is the offset of the Beijing time recorded in SC2 headers.
const sc2Timezone = 8 * time.Hour

// Volume is a decoded, normalized volume scan. Field arrays are
// [NRays][len(Range)] in physical units with missing gates marked NaN.
// Per-sweep slices have NSweeps elements and per-ray slices NRays elements.
type Volume struct {
	Variant  Variant
	ScanType ScanType
	Site     site.Site

	Fields map[string]*Field
	Range  []float64 // gate ranges, m

	Azimuth             []float64 // degrees
	Elevation           []float64 // degrees
	Time                []time.Time
	RayNyquist          []float64 // m/s
	RayUnambiguousRange []float64 // km

	SweepStart       []int
	SweepEnd         []int
	FixedAngle       []float64 // degrees
	NyquistVelocity  []float64 // m/s
	UnambiguousRange []float64 // km
	BinsPerSweep     []int

	// SplitCuts is the number of split-cut sweep pairs merged during decode.
	SplitCuts int
}

// NRays returns the number of rays.
func (v *Volume) NRays() int { return len(v.Azimuth) }

// NSweeps returns the number of sweeps.
func (v *Volume) NSweeps() int { return len(v.SweepStart) }

// RaysPerSweep returns the ray count of each sweep.
func (v *Volume) RaysPerSweep() []int {
	return SweepIndex{Start: v.SweepStart, End: v.SweepEnd}.Rays()
}

// FieldNames returns the moment names present, sorted.
func (v *Volume) FieldNames() []string {
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Nominal elevation tables of the standard SAB volume coverage patterns,
// keyed by sweep count only.
var fixedAngleTables = map[int][]float64{
	9:  {0.50, 1.45, 2.40, 3.35, 4.30, 6.00, 9.00, 14.6, 19.5},
	14: {0.50, 1.45, 2.40, 3.35, 4.30, 5.25, 6.2, 7.5, 8.7, 10, 12, 14, 16.7, 19.5},
	6:  {0.50, 1.50, 2.50, 2.50, 3.50, 4.50},
	4:  {0.50, 2.50, 3.50, 4.50},
}

// FixedAngles returns the SAB family fixed angles for a volume whose sweeps
// have the given first-ray elevations. Sweep counts of 4, 6, 9 and 14 get the
// nominal table of the matching pattern whatever was measured.
func FixedAngles(measured []float64) []float64 {
	if table, ok := fixedAngleTables[len(measured)]; ok {
		return slices.Clone(table)
	}
	return slices.Clone(measured)
}

// AssembleSAB builds the volume of a reconciled, resampled SAB family scan.
func AssembleSAB(v Variant, rec Reconciliation, grid Resampled, s site.Site) *Volume {
	radials, idx := rec.Radials, rec.Index
	vol := &Volume{
		Variant:             v,
		ScanType:            ScanPPI,
		Site:                s,
		Fields:              grid.Fields,
		Range:               grid.Range,
		Azimuth:             make([]float64, len(radials)),
		Elevation:           make([]float64, len(radials)),
		Time:                make([]time.Time, len(radials)),
		RayNyquist:          make([]float64, len(radials)),
		RayUnambiguousRange: make([]float64, len(radials)),
		SweepStart:          idx.Start,
		SweepEnd:            idx.End,
		NyquistVelocity:     make([]float64, idx.NSweeps()),
		UnambiguousRange:    make([]float64, idx.NSweeps()),
		BinsPerSweep:        grid.BinsPerSweep,
		SplitCuts:           len(rec.Pairs),
	}
	for i, r := range radials {
		vol.Azimuth[i] = r.Azimuth
		vol.Elevation[i] = r.Elevation
		vol.Time[i] = r.Header.Time()
		vol.RayNyquist[i] = r.Header.Nyquist()
		vol.RayUnambiguousRange[i] = r.Header.UnambiguousRange()
	}
	measured := make([]float64, idx.NSweeps())
	for i, start := range idx.Start {
		first := radials[start]
		vol.NyquistVelocity[i] = first.Header.Nyquist()
		vol.UnambiguousRange[i] = first.Header.UnambiguousRange()
		measured[i] = first.Elevation
	}
	vol.FixedAngle = FixedAngles(measured)
	return vol
}

// AssembleSC builds the volume of an SC2 scan. Nyquist velocity and
// unambiguous range come from the layer table and are assumed uniform within
// a sweep. Ray times are spread evenly from the header start to end time and
// converted to UTC.
func AssembleSC(h *BaseDataHeader, radials []Radial, idx SweepIndex, grid Resampled) *Volume {
	vol := &Volume{
		Variant:  VariantSC2,
		ScanType: h.ScanType(),
		Site: site.Site{
			Station:   h.Site.StationNumber,
			Name:      h.Site.Station,
			Latitude:  h.Site.Latitude,
			Longitude: h.Site.Longitude,
			Altitude:  h.Site.Altitude,
			Frequency: sc2Frequency,
		},
		Fields:              grid.Fields,
		Range:               grid.Range,
		Azimuth:             make([]float64, len(radials)),
		Elevation:           make([]float64, len(radials)),
		Time:                rayTimes(h.Start.Add(-sc2Timezone), h.End.Add(-sc2Timezone), len(radials)),
		RayNyquist:          make([]float64, 0, len(radials)),
		RayUnambiguousRange: make([]float64, 0, len(radials)),
		SweepStart:          idx.Start,
		SweepEnd:            idx.End,
		FixedAngle:          make([]float64, len(h.Layers)),
		NyquistVelocity:     make([]float64, len(h.Layers)),
		UnambiguousRange:    make([]float64, len(h.Layers)),
		BinsPerSweep:        grid.BinsPerSweep,
	}
	for i, r := range radials {
		vol.Azimuth[i] = r.Azimuth
		vol.Elevation[i] = r.Elevation
	}
	for i, l := range h.Layers {
		vol.FixedAngle[i] = l.FixedAngle()
		vol.NyquistVelocity[i] = l.Nyquist()
		vol.UnambiguousRange[i] = l.UnambiguousRange()
		for range l.RecordNumber {
			vol.RayNyquist = append(vol.RayNyquist, l.Nyquist())
			vol.RayUnambiguousRange = append(vol.RayUnambiguousRange, l.UnambiguousRange())
		}
	}
	return vol
}

// rayTimes returns n times evenly spaced from start to end inclusive.
func rayTimes(start, end time.Time, n int) []time.Time {
	times := make([]time.Time, n)
	if n == 0 {
		return times
	}
	times[0] = start
	if n == 1 {
		return times
	}
	span := end.Sub(start)
	for i := 1; i < n; i++ {
		times[i] = start.Add(span * time.Duration(i) / time.Duration(n-1))
	}
	return times
}
