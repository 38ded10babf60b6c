package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

const testFile = "Z_RADR_I_Z9250_20160630000000_O_DOR_SA_CAP.bin"

var nan = float32(math.NaN())

func testVolume() *basedata.Volume {
	start := time.Date(2016, time.June, 30, 0, 0, 0, 0, time.UTC)
	return &basedata.Volume{
		Variant:  basedata.VariantSAB,
		ScanType: basedata.ScanPPI,
		Site:     site.Site{Station: "Z9250", Name: "Nanjing", Latitude: 32.19, Longitude: 118.70, Altitude: 134.9, Frequency: 2.8},
		Fields: map[string]*basedata.Field{
			"dBZ": {NRays: 2, NBins: 3, Data: []float32{10, 20, nan, 30, nan, nan}},
			"V":   {NRays: 2, NBins: 3, Data: []float32{nan, nan, nan, nan, nan, nan}},
		},
		Range:            []float64{250, 500, 750},
		Azimuth:          []float64{0, 180},
		Elevation:        []float64{0.5, 1.45},
		Time:             []time.Time{start, start.Add(time.Minute)},
		SweepStart:       []int{0, 1},
		SweepEnd:         []int{0, 1},
		FixedAngle:       []float64{0.5, 1.45},
		NyquistVelocity:  []float64{27, 27},
		UnambiguousRange: []float64{460, 460},
		BinsPerSweep:     []int{3, 2},
		SplitCuts:        1,
	}
}

func TestSummarize(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	rec := Summarize("/data/incoming/"+testFile, testVolume())

	assert.Equal(t, testFile, rec.File)
	assert.Equal(t, "SAB", rec.Variant)
	assert.Equal(t, "ppi", rec.ScanType)
	assert.Equal(t, "Z9250", rec.Site.Station)
	assert.Equal(t, 2, rec.NRays)
	assert.Equal(t, 2, rec.NSweeps)
	assert.Equal(t, 3, rec.Gates)
	assert.Equal(t, 250.0, rec.GateSpacing)
	assert.Equal(t, 1, rec.SplitCuts)
	assert.Equal(t, time.Date(2016, time.June, 30, 0, 0, 0, 0, time.UTC), rec.StartTime)
	assert.Equal(t, time.Date(2016, time.June, 30, 0, 1, 0, 0, time.UTC), rec.EndTime)
	assert.Equal(t, fakeClock.Now(), rec.ProcessedAt)
	assert.NotEmpty(t, rec.ID)

	require.Len(t, rec.Sweeps, 2)
	assert.Equal(t, SweepSummary{
		Index: 1, FixedAngle: 1.45, StartRay: 1, EndRay: 1, Rays: 1, Bins: 2,
		NyquistVelocity: 27, UnambiguousRange: 460,
	}, rec.Sweeps[1])

	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "V", rec.Fields[0].Name)
	assert.Equal(t, 0, rec.Fields[0].ValidGates)
	assert.Zero(t, rec.Fields[0].Coverage)

	dbz := rec.Fields[1]
	assert.Equal(t, "dBZ", dbz.Name)
	assert.Equal(t, 3, dbz.ValidGates)
	assert.Equal(t, 6, dbz.TotalGates)
	assert.InDelta(t, 0.5, dbz.Coverage, 1e-9)
	assert.Equal(t, 10.0, dbz.Min)
	assert.Equal(t, 30.0, dbz.Max)
	assert.InDelta(t, 20.0, dbz.Mean, 1e-9)
}

func TestSummarize_StableID(t *testing.T) {
	a := Summarize(testFile, testVolume())
	b := Summarize("/elsewhere/"+testFile, testVolume())
	assert.Equal(t, a.ID, b.ID)

	other := testVolume()
	other.Time[0] = other.Time[0].Add(time.Second)
	assert.NotEqual(t, a.ID, Summarize(testFile, other).ID)
}

func TestSummarize_EmptyVolume(t *testing.T) {
	rec := Summarize(testFile, &basedata.Volume{Variant: basedata.VariantSC2})
	assert.Equal(t, "SC2", rec.Variant)
	assert.Zero(t, rec.GateSpacing)
	assert.True(t, rec.StartTime.IsZero())
	assert.Empty(t, rec.Sweeps)
	assert.Empty(t, rec.Fields)
}

func TestVolumeRecord_JSON(t *testing.T) {
	rec := Summarize(testFile, testVolume())
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec.ID, decoded["id"])
	assert.Equal(t, "Z9250", decoded["site"].(map[string]any)["station"])
	assert.Len(t, decoded["sweeps"], 2)
}

func TestOutcome_Status(t *testing.T) {
	assert.Equal(t, "ok", Outcome{}.Status())
	assert.Equal(t, "failed", Outcome{Err: assert.AnError}.Status())
}
