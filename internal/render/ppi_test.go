package render

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

func testVolume() *basedata.Volume {
	const rays, bins = 8, 20
	nan := float32(math.NaN())
	dbz := make([]float32, rays*bins)
	vel := make([]float32, rays*bins)
	for i := range dbz {
		dbz[i] = float32(i % 60)
		vel[i] = nan
	}
	az := make([]float64, rays)
	el := make([]float64, rays)
	for i := range az {
		az[i] = float64(i) * 45
		el[i] = 0.5
	}
	rng := basedata.CanonicalGrid(1000, bins)
	start := time.Date(2016, time.June, 30, 0, 0, 0, 0, time.UTC)
	return &basedata.Volume{
		Site: site.Site{Station: "Z9250"},
		Fields: map[string]*basedata.Field{
			basedata.MomentReflectivity: {NRays: rays, NBins: bins, Data: dbz},
			basedata.MomentVelocity:     {NRays: rays, NBins: bins, Data: vel},
		},
		Range:           rng,
		Azimuth:         az,
		Elevation:       el,
		Time:            []time.Time{start, start, start, start, start, start, start, start},
		SweepStart:      []int{0},
		SweepEnd:        []int{rays - 1},
		FixedAngle:      []float64{0.5},
		NyquistVelocity: []float64{27},
	}
}

func TestPPI(t *testing.T) {
	p, err := PPI(testVolume(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Z9250 dBZ 0.50° 2016-06-30 00:00 UTC", p.Title.Text)
	assert.Equal(t, -20.0, p.X.Min)
	assert.Equal(t, 20.0, p.Y.Max)
}

func TestPPI_Errors(t *testing.T) {
	vol := testVolume()

	_, err := PPI(vol, Options{Field: "ZDR"})
	require.Error(t, err)

	_, err = PPI(vol, Options{Sweep: 1})
	require.Error(t, err)

	_, err = PPI(vol, Options{Field: basedata.MomentVelocity})
	require.ErrorIs(t, err, ErrNoData)
}

func TestSavePPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ppi.png")
	require.NoError(t, SavePPI(testVolume(), Options{Size: 4 * vg.Inch}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestColorRange(t *testing.T) {
	vol := testVolume()
	values := []float64{3, -2, 7}

	lo, hi := colorRange(vol, Options{Field: "dBZ"}, values)
	assert.Equal(t, []float64{-5, 75}, []float64{lo, hi})

	lo, hi = colorRange(vol, Options{Field: "V"}, values)
	assert.Equal(t, []float64{-27, 27}, []float64{lo, hi})

	lo, hi = colorRange(vol, Options{Field: "W"}, values)
	assert.Equal(t, []float64{-2, 7}, []float64{lo, hi})

	lo, hi = colorRange(vol, Options{Field: "dBZ", Min: 0, Max: 50}, values)
	assert.Equal(t, []float64{0, 50}, []float64{lo, hi})
}

func TestPick_Clamps(t *testing.T) {
	colors := []color.Color{color.Black, color.Gray{Y: 128}, color.White}
	assert.Equal(t, color.Black, pick(colors, -100, 0, 10))
	assert.Equal(t, color.White, pick(colors, 100, 0, 10))
	assert.Equal(t, color.Gray{Y: 128}, pick(colors, 5, 0, 10))
}
