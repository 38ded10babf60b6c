package basedata

import (
	"math"
	"slices"
)

// SweepClass tells which moments a sweep carries, judged by its first ray.
type SweepClass int

const (
	SweepComplete         SweepClass = iota // both, or neither
	SweepReflectivityOnly                   // surveillance half of a split cut
	SweepVelocityOnly                       // Doppler half of a split cut
)

func (c SweepClass) String() string {
	switch c {
	case SweepReflectivityOnly:
		return "reflectivity-only"
	case SweepVelocityOnly:
		return "velocity-only"
	default:
		return "complete"
	}
}

// maxSplitCutTilt is the largest elevation difference, in degrees, allowed
// between the two halves of a split cut.
const maxSplitCutTilt = 0.5

// ClassifySweeps classifies every sweep of idx by the moments of its first ray.
func ClassifySweeps(radials []Radial, idx SweepIndex) []SweepClass {
	classes := make([]SweepClass, idx.NSweeps())
	for i, start := range idx.Start {
		first := radials[start]
		ref, vel := first.Has(MomentReflectivity), first.Has(MomentVelocity)
		switch {
		case ref && !vel:
			classes[i] = SweepReflectivityOnly
		case vel && !ref:
			classes[i] = SweepVelocityOnly
		}
	}
	return classes
}

// SplitCut pairs the sweep numbers, in the unreconciled volume, of the two
// halves of one split cut.
type SplitCut struct {
	Reflectivity int
	Velocity     int
}

// Reconciliation is the result of merging split cuts.
type Reconciliation struct {
	Radials []Radial
	Index   SweepIndex
	Pairs   []SplitCut
}

// Reconcile merges every split cut of an SAB family volume. Each velocity-only
// ray receives the reflectivity gates of the nearest-azimuth ray of the
// preceding reflectivity-only sweep, then all reflectivity-only rays are
// dropped and sweep bounds are rebuilt from the remaining status codes.
//
// The input radials are not modified. Velocity-only rays are replaced by new
// values owning a copy of the borrowed reflectivity.
func Reconcile(radials []Radial, idx SweepIndex) (Reconciliation, error) {
	classes := ClassifySweeps(radials, idx)
	var refOnly, velOnly []int
	for i, c := range classes {
		switch c {
		case SweepReflectivityOnly:
			refOnly = append(refOnly, i)
		case SweepVelocityOnly:
			velOnly = append(velOnly, i)
		}
	}
	if len(refOnly) != len(velOnly) {
		return Reconciliation{}, consistencyErrorf("unexpected split-cut pairing: %d reflectivity-only sweeps, %d velocity-only sweeps",
			len(refOnly), len(velOnly))
	}
	if len(refOnly) == 0 {
		return Reconciliation{Radials: radials, Index: idx}, nil
	}

	pairs := make([]SplitCut, len(refOnly))
	source := make(map[int]int) // velocity ray -> reflectivity ray
	drop := make([]bool, len(radials))
	for i := range refOnly {
		ref, vel := refOnly[i], velOnly[i]
		if vel != ref+1 {
			return Reconciliation{}, consistencyErrorf("unexpected split-cut pairing: reflectivity sweep %d, velocity sweep %d", ref, vel)
		}
		refEl, velEl := radials[idx.Start[ref]].Elevation, radials[idx.Start[vel]].Elevation
		if math.Abs(refEl-velEl) >= maxSplitCutTilt {
			return Reconciliation{}, consistencyErrorf("unexpected split-cut pairing: sweeps %d and %d differ by %.2f degrees", ref, vel, math.Abs(refEl-velEl))
		}
		pairs[i] = SplitCut{Reflectivity: ref, Velocity: vel}

		azimuths := make([]float64, 0, idx.End[ref]-idx.Start[ref]+1)
		for j := idx.Start[ref]; j <= idx.End[ref]; j++ {
			azimuths = append(azimuths, radials[j].Azimuth)
			drop[j] = true
		}
		for j := idx.Start[vel]; j <= idx.End[vel]; j++ {
			source[j] = idx.Start[ref] + NearestAzimuth(azimuths, radials[j].Azimuth)
		}
	}

	out := make([]Radial, 0, len(radials))
	for j, r := range radials {
		if drop[j] {
			continue
		}
		if k, ok := source[j]; ok {
			r = withReflectivity(r, radials[k])
		}
		out = append(out, r)
	}

	newIdx, err := IndexSweepsByStatus(out)
	if err != nil {
		return Reconciliation{}, err
	}
	if newIdx.NSweeps() != idx.NSweeps()-len(pairs) {
		return Reconciliation{}, consistencyErrorf("reconciled volume has %d sweeps, want %d", newIdx.NSweeps(), idx.NSweeps()-len(pairs))
	}
	return Reconciliation{Radials: out, Index: newIdx, Pairs: pairs}, nil
}

// withReflectivity returns a copy of vel carrying the reflectivity gates and
// reflectivity gate geometry of ref.
func withReflectivity(vel, ref Radial) Radial {
	moments := make(map[string][]float32, len(vel.Moments))
	for name, gates := range vel.Moments {
		moments[name] = gates
	}
	moments[MomentReflectivity] = slices.Clone(ref.Moments[MomentReflectivity])

	h := vel.Header
	h.RefGates = ref.Header.RefGates
	h.RefGateSize = ref.Header.RefGateSize
	h.RefFirstGate = ref.Header.RefFirstGate
	vel.Header = h
	vel.Moments = moments
	return vel
}

// NearestAzimuth returns the index of the azimuth in candidates with the
// smallest absolute difference from az, preferring the lowest index on ties.
// Differences do not wrap at north: 359.5 is nearer 358 than 0.2. It returns
// -1 for an empty candidate list.
func NearestAzimuth(candidates []float64, az float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, c := range candidates {
		if d := math.Abs(c - az); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
