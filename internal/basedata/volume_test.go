package basedata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedAngles(t *testing.T) {
	measured := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 0.7 + float64(i)*1.1
		}
		return out
	}

	tests := []struct {
		name  string
		input []float64
		want  []float64
	}{
		{"nine sweeps", measured(9), []float64{0.50, 1.45, 2.40, 3.35, 4.30, 6.00, 9.00, 14.6, 19.5}},
		{"fourteen sweeps", measured(14), []float64{0.50, 1.45, 2.40, 3.35, 4.30, 5.25, 6.2, 7.5, 8.7, 10, 12, 14, 16.7, 19.5}},
		{"six sweeps", measured(6), []float64{0.50, 1.50, 2.50, 2.50, 3.50, 4.50}},
		{"four sweeps", measured(4), []float64{0.50, 2.50, 3.50, 4.50}},
		{"seven sweeps fall back", measured(7), measured(7)},
		{"one sweep falls back", []float64{0.48}, []float64{0.48}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixedAngles(tt.input))
		})
	}
}

func TestFixedAngles_ReturnsCopy(t *testing.T) {
	got := FixedAngles(make([]float64, 4))
	got[0] = 99
	assert.Equal(t, 0.50, FixedAngles(make([]float64, 4))[0])
}

func TestRayTimes(t *testing.T) {
	start := time.Date(2018, time.February, 9, 5, 27, 0, 0, time.UTC)
	end := start.Add(4 * time.Minute)

	got := rayTimes(start, end, 5)
	want := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute), start.Add(3 * time.Minute), end}
	assert.Equal(t, want, got)

	assert.Equal(t, []time.Time{start}, rayTimes(start, end, 1))
	assert.Empty(t, rayTimes(start, end, 0))
}

func TestVolume_RaysPerSweep(t *testing.T) {
	v := &Volume{SweepStart: []int{0, 360, 720}, SweepEnd: []int{359, 719, 1079}, Azimuth: make([]float64, 1080)}
	assert.Equal(t, []int{360, 360, 360}, v.RaysPerSweep())
	assert.Equal(t, 3, v.NSweeps())
	assert.Equal(t, 1080, v.NRays())
}
