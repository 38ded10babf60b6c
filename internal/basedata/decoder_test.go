package basedata_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/basedata/fixture"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

const sabName = "Z_RADR_I_Z9250_20160701000000_O_DOR_SA_CAP.bin"

var nanjing = site.Site{Station: "Z9250", Name: "Nanjing", Latitude: 32.19, Longitude: 118.70, Altitude: 134.9, Frequency: 2.8}

func newDecoder(t *testing.T) (*basedata.Decoder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return basedata.NewDecoder(site.StaticTable{"Z9250": nanjing}, logger), &logs
}

func nineTilts(elevation func(i int) float64) []fixture.Sweep {
	sweeps := make([]fixture.Sweep, 9)
	for i := range sweeps {
		sweeps[i] = fixture.Sweep{Elevation: elevation(i), Rays: 4, RefGates: 460, DopGates: 920, RefCode: 100, VelCode: 140, WidthCode: 10}
	}
	return sweeps
}

func TestDecoder_SplitCutVolume(t *testing.T) {
	dec, logs := newDecoder(t)
	data := fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume())

	vol, err := dec.Decode(context.Background(), sabName, data)
	require.NoError(t, err)

	assert.Equal(t, basedata.VariantSAB, vol.Variant)
	assert.Equal(t, basedata.ScanPPI, vol.ScanType)
	assert.Equal(t, nanjing, vol.Site)
	assert.Equal(t, 1, vol.SplitCuts)
	assert.Equal(t, 2, vol.NSweeps())
	assert.Equal(t, 12, vol.NRays())
	assert.Equal(t, []int{0, 6}, vol.SweepStart)
	assert.Equal(t, []int{5, 11}, vol.SweepEnd)
	assert.Equal(t, []int{6, 6}, vol.RaysPerSweep())
	assert.Equal(t, []int{920, 920}, vol.BinsPerSweep)
	assert.Len(t, vol.Range, 920)
	assert.InDelta(t, 250, vol.Range[0], 1e-9)
	assert.InDelta(t, 230000, vol.Range[919], 1e-6)
	assert.Equal(t, []string{"V", "W", "dBZ"}, vol.FieldNames())

	// Two sweeps matches no standard pattern: measured first-ray elevation.
	assert.InDeltaSlice(t, []float64{fixture.SABAngle(0.5), fixture.SABAngle(1.45)}, vol.FixedAngle, 1e-9)
	assert.InDeltaSlice(t, []float64{27, 27}, vol.NyquistVelocity, 1e-9)
	assert.InDeltaSlice(t, []float64{460, 460}, vol.UnambiguousRange, 1e-9)
	assert.Len(t, vol.RayNyquist, 12)

	// Reflectivity borrowed from the surveillance sweep: code 100 is 17 dBZ.
	dbz := vol.Fields[basedata.MomentReflectivity]
	assert.Equal(t, float32(17), dbz.At(0, 0))
	assert.Equal(t, float32(17), dbz.At(5, 919))
	assert.Equal(t, float32(12), dbz.At(6, 0))

	assert.Contains(t, logs.String(), "split cuts reconciled")
}

func TestDecoder_FixedAngleTable(t *testing.T) {
	dec, _ := newDecoder(t)
	data := fixture.SABFile(fixture.SABRecordSize, nineTilts(func(i int) float64 { return 0.3 + float64(i) }))

	vol, err := dec.Decode(context.Background(), sabName, data)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.50, 1.45, 2.40, 3.35, 4.30, 6.00, 9.00, 14.6, 19.5}, vol.FixedAngle)
}

func TestDecoder_SABTimes(t *testing.T) {
	dec, _ := newDecoder(t)
	data := fixture.SABFile(fixture.SABRecordSize, nineTilts(func(i int) float64 { return float64(i) }))

	vol, err := dec.Decode(context.Background(), sabName, data)
	require.NoError(t, err)
	start := time.Date(2016, time.June, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, vol.Time[0])
	assert.Equal(t, start.Add(3500*time.Millisecond), vol.Time[35])
}

func TestDecoder_CBAndLegacySC(t *testing.T) {
	dec, _ := newDecoder(t)
	for _, tt := range []struct {
		size int
		want basedata.Variant
	}{
		{fixture.CBRecordSize, basedata.VariantCB},
		{fixture.SCLegacyRecordSize, basedata.VariantSCLegacy},
	} {
		vol, err := dec.Decode(context.Background(), sabName, fixture.SABFile(tt.size, fixture.SplitCutVolume()))
		require.NoError(t, err)
		assert.Equal(t, tt.want, vol.Variant)
		assert.Equal(t, 2, vol.NSweeps())
	}
}

func TestDecoder_SiteDegradation(t *testing.T) {
	dec, logs := newDecoder(t)
	data := fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume())

	vol, err := dec.Decode(context.Background(), "Z_RADR_I_Z9999_20160701000000_O_DOR_SA_CAP.bin", data)
	require.NoError(t, err)
	assert.Equal(t, site.Site{Station: "Z9999"}, vol.Site)
	assert.Contains(t, logs.String(), "site lookup failed")

	noTable := basedata.NewDecoder(nil, slog.New(slog.DiscardHandler))
	vol, err = noTable.Decode(context.Background(), sabName, data)
	require.NoError(t, err)
	assert.Equal(t, site.Site{Station: "Z9250"}, vol.Site)
}

func TestDecoder_SC2(t *testing.T) {
	dec, _ := newDecoder(t)
	hdr := fixture.DefaultSC2Header()
	data := fixture.SC2File(hdr, 84, 192, 0, 128)

	vol, err := dec.Decode(context.Background(), "anything.bin", data)
	require.NoError(t, err)

	want := site.Site{Station: "Z9280", Name: "成都", Latitude: 30.65, Longitude: 104.03, Altitude: 583, Frequency: 2.765}
	if diff := cmp.Diff(want, vol.Site, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("site mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, basedata.VariantSC2, vol.Variant)
	assert.Equal(t, basedata.ScanPPI, vol.ScanType)
	assert.Equal(t, []int{0, 12, 24}, vol.SweepStart)
	assert.Equal(t, []int{11, 23, 33}, vol.SweepEnd)
	assert.Equal(t, []float64{0.5, 1.5, 2.4}, vol.FixedAngle)
	assert.Equal(t, []float64{27, 27, 18}, vol.NyquistVelocity)
	assert.Equal(t, []float64{150, 150, 200}, vol.UnambiguousRange)
	assert.Equal(t, []int{998, 998, 998}, vol.BinsPerSweep)
	assert.Len(t, vol.Range, 998)
	assert.InDelta(t, 300, vol.Range[0], 1e-9)
	assert.Equal(t, []string{"V", "W", "dBT", "dBZ"}, vol.FieldNames())
	assert.True(t, basedata.IsMissing(vol.Fields[basedata.MomentTotalReflectivity].At(0, 0)))
	assert.Equal(t, float32(9), vol.Fields[basedata.MomentVelocity].At(33, 500))

	require.Len(t, vol.RayNyquist, 34)
	assert.InDelta(t, 18, vol.RayNyquist[30], 1e-9)
	assert.InDelta(t, 200, vol.RayUnambiguousRange[33], 1e-9)

	// Ray times span the header start and end, shifted from Beijing time.
	require.Len(t, vol.Time, 34)
	assert.Equal(t, time.Date(2018, time.February, 9, 5, 27, 0, 0, time.UTC), vol.Time[0])
	assert.Equal(t, time.Date(2018, time.February, 9, 5, 33, 0, 0, time.UTC), vol.Time[33])
	assert.True(t, vol.Time[1].After(vol.Time[0]))
}

func TestDecoder_SC2SizeMismatch(t *testing.T) {
	dec, _ := newDecoder(t)
	data := fixture.SC2File(fixture.DefaultSC2Header(), 84, 192, 84, 128)

	_, err := dec.Decode(context.Background(), "x.bin", data[:len(data)-1])
	assert.Equal(t, "format", basedata.ErrorKind(err))
}

func TestDecoder_DecodeAsForcesVariant(t *testing.T) {
	dec, _ := newDecoder(t)
	data := fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume())

	_, err := dec.DecodeAs(context.Background(), basedata.VariantSC2, sabName, data)
	require.Error(t, err)

	vol, err := dec.DecodeAs(context.Background(), basedata.VariantSAB, sabName, data)
	require.NoError(t, err)
	assert.Equal(t, 2, vol.NSweeps())

	_, err = dec.DecodeAs(context.Background(), basedata.VariantUnknown, sabName, data)
	assert.Equal(t, "format", basedata.ErrorKind(err))
}

func TestDecoder_Cancelled(t *testing.T) {
	dec, _ := newDecoder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dec.Decode(ctx, sabName, fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecoder_DecodeFileGzip(t *testing.T) {
	dec, _ := newDecoder(t)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), sabName+".gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	vol, err := dec.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Z9250", vol.Site.Station)

	_, err = dec.DecodeFile(context.Background(), filepath.Join(t.TempDir(), "missing.bin"))
	assert.Equal(t, "io", basedata.ErrorKind(err))
}
