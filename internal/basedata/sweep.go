package basedata

// Radial status codes of the SAB family.
const (
	StatusSweepStart   = 0
	StatusIntermediate = 1
	StatusSweepEnd     = 2
	StatusVolumeStart  = 3
	StatusVolumeEnd    = 4
)

// SweepIndex holds the inclusive, zero-based ray bounds of each sweep.
type SweepIndex struct {
	Start []int
	End   []int
}

// NSweeps returns the number of sweeps.
func (s SweepIndex) NSweeps() int { return len(s.Start) }

// Rays returns the ray count of each sweep.
func (s SweepIndex) Rays() []int {
	n := make([]int, len(s.Start))
	for i := range s.Start {
		n[i] = s.End[i] - s.Start[i] + 1
	}
	return n
}

// Sweep returns the sweep number containing ray, or -1.
func (s SweepIndex) Sweep(ray int) int {
	for i := range s.Start {
		if ray >= s.Start[i] && ray <= s.End[i] {
			return i
		}
	}
	return -1
}

// Validate checks that the sweeps are contiguous, non-overlapping and cover
// [0, nrays-1] exactly.
func (s SweepIndex) Validate(nrays int) error {
	if len(s.Start) != len(s.End) {
		return consistencyErrorf("%d sweep starts but %d sweep ends", len(s.Start), len(s.End))
	}
	if len(s.Start) == 0 {
		return consistencyErrorf("no sweeps")
	}
	if s.Start[0] != 0 {
		return consistencyErrorf("first sweep starts at ray %d", s.Start[0])
	}
	if last := s.End[len(s.End)-1]; last != nrays-1 {
		return consistencyErrorf("last sweep ends at ray %d of %d", last, nrays)
	}
	for i := range s.Start {
		if s.Start[i] > s.End[i] {
			return consistencyErrorf("sweep %d starts at ray %d after it ends at %d", i, s.Start[i], s.End[i])
		}
		if i+1 < len(s.Start) && s.Start[i+1] != s.End[i]+1 {
			return consistencyErrorf("sweep %d starts at ray %d, previous ends at %d", i+1, s.Start[i+1], s.End[i])
		}
	}
	return nil
}

// IndexSweepsByStatus derives sweep bounds from SAB family radial status
// codes: 0 and 3 open a sweep, 2 and 4 close one.
func IndexSweepsByStatus(radials []Radial) (SweepIndex, error) {
	var idx SweepIndex
	for i, r := range radials {
		switch r.Header.Status {
		case StatusSweepStart, StatusVolumeStart:
			idx.Start = append(idx.Start, i)
		case StatusSweepEnd, StatusVolumeEnd:
			idx.End = append(idx.End, i)
		}
	}
	if err := idx.Validate(len(radials)); err != nil {
		return SweepIndex{}, err
	}
	return idx, nil
}

// IndexSweepsByCounts derives sweep bounds from per-sweep record counts by
// running sum.
func IndexSweepsByCounts(counts []int) (SweepIndex, error) {
	idx := SweepIndex{Start: make([]int, len(counts)), End: make([]int, len(counts))}
	next := 0
	for i, n := range counts {
		if n <= 0 {
			return SweepIndex{}, consistencyErrorf("sweep %d declares %d records", i, n)
		}
		idx.Start[i] = next
		next += n
		idx.End[i] = next - 1
	}
	if err := idx.Validate(next); err != nil {
		return SweepIndex{}, err
	}
	return idx, nil
}
