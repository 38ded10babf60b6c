package basedata

import (
	"maps"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Field is a moment resampled onto the canonical range grid, stored row-major
// as [NRays][NBins].
type Field struct {
	NRays int
	NBins int
	Data  []float32
}

// Row returns the gates of ray i. The slice aliases the field data.
func (f *Field) Row(i int) []float32 {
	return f.Data[i*f.NBins : (i+1)*f.NBins]
}

// At returns gate j of ray i.
func (f *Field) At(i, j int) float32 {
	return f.Data[i*f.NBins+j]
}

// CanonicalGrid returns the n gate ranges spacing, 2*spacing, ..., n*spacing.
func CanonicalGrid(spacing float64, n int) []float64 {
	return axis(spacing, spacing, n)
}

func axis(first, step float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{first}
	}
	return floats.Span(make([]float64, n), first, first+step*float64(n-1))
}

// ResampleNearest maps values, sampled at the ascending ranges native, onto
// target by nearest neighbour. Target ranges outside [native[0],
// native[len-1]] are missing. A range exactly between two native gates takes
// the nearer-to-radar gate.
func ResampleNearest(values []float32, native, target []float64) []float32 {
	out := make([]float32, len(target))
	n := min(len(values), len(native))
	if n == 0 {
		for i := range out {
			out[i] = Missing
		}
		return out
	}
	native = native[:n]
	lo, hi := native[0], native[n-1]
	for i, x := range target {
		if x < lo || x > hi {
			out[i] = Missing
			continue
		}
		j := sort.SearchFloat64s(native, x)
		if native[j] != x && x-native[j-1] <= native[j]-x {
			j--
		}
		out[i] = values[j]
	}
	return out
}

// FitLength truncates values to n gates or right-pads them with missing
// gates. The result never aliases values.
func FitLength(values []float32, n int) []float32 {
	out := make([]float32, n)
	copied := copy(out, values)
	for i := copied; i < n; i++ {
		out[i] = Missing
	}
	return out
}

// NativeAxis is the range geometry of a moment recorded on its own gate grid:
// gate i lies at First + i*Step meters.
type NativeAxis struct {
	First float64
	Step  float64
}

// ResamplePlan describes how to bring every moment onto one range grid.
type ResamplePlan struct {
	// Reference is the moment whose first-ray gate count per sweep sets the
	// bins per sweep.
	Reference string
	// Spacing is the canonical gate spacing in meters.
	Spacing float64
	// Regrid lists moments sampled on a different grid. All other moments
	// share the canonical grid and are only truncated or padded.
	Regrid map[string]NativeAxis
}

// SABPlan returns the SAB family plan: the Doppler grid is canonical and
// reflectivity, whose coarser gates start one Doppler gate out, is regridded.
// Gate geometry is taken from the first ray.
func SABPlan(radials []Radial) (ResamplePlan, error) {
	if len(radials) == 0 {
		return ResamplePlan{}, consistencyErrorf("no radials")
	}
	h := radials[0].Header
	if h.DopGateSize <= 0 {
		return ResamplePlan{}, consistencyErrorf("doppler gate size %d", h.DopGateSize)
	}
	return ResamplePlan{
		Reference: MomentVelocity,
		Spacing:   float64(h.DopGateSize),
		Regrid: map[string]NativeAxis{
			MomentReflectivity: {First: float64(h.DopGateSize), Step: float64(h.RefGateSize)},
		},
	}, nil
}

// SCPlan returns the SC2 plan: every moment shares the grid declared by the
// first layer's bin width.
func SCPlan(h *BaseDataHeader) (ResamplePlan, error) {
	if len(h.Layers) == 0 || h.Layers[0].BinWidth <= 0 {
		return ResamplePlan{}, consistencyErrorf("no bin width in header")
	}
	return ResamplePlan{
		Reference: MomentReflectivity,
		Spacing:   float64(h.Layers[0].BinWidth) / 10,
	}, nil
}

// Resampled is the output of Resample.
type Resampled struct {
	Range        []float64 // canonical gate ranges, m
	BinsPerSweep []int
	Fields       map[string]*Field
}

// MaxBins returns the canonical gate count.
func (r Resampled) MaxBins() int { return len(r.Range) }

// Resample aligns every moment of radials onto one canonical range grid
// spanning the largest per-sweep reference gate count. The moment set is that
// of the first ray. Each ray is resampled independently.
func Resample(radials []Radial, idx SweepIndex, plan ResamplePlan) (Resampled, error) {
	if len(radials) == 0 {
		return Resampled{}, consistencyErrorf("no radials")
	}
	bins := make([]int, idx.NSweeps())
	maxBins := 0
	for i, start := range idx.Start {
		bins[i] = len(radials[start].Moments[plan.Reference])
		maxBins = max(maxBins, bins[i])
	}
	if maxBins == 0 {
		return Resampled{}, consistencyErrorf("no %s gates in any sweep", plan.Reference)
	}

	grid := CanonicalGrid(plan.Spacing, maxBins)
	names := slices.Sorted(maps.Keys(radials[0].Moments))
	fields := make(map[string]*Field, len(names))
	for _, name := range names {
		f := &Field{NRays: len(radials), NBins: maxBins, Data: make([]float32, len(radials)*maxBins)}
		native, regrid := plan.Regrid[name]
		for i, r := range radials {
			values := r.Moments[name]
			var row []float32
			if regrid {
				row = ResampleNearest(values, axis(native.First, native.Step, len(values)), grid)
			} else {
				row = FitLength(values, maxBins)
			}
			copy(f.Row(i), row)
		}
		fields[name] = f
	}
	return Resampled{Range: grid, BinsPerSweep: bins, Fields: fields}, nil
}
