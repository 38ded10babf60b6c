package pipeline_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/basedata/fixture"
	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/pipeline"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

var nanjing = site.Site{Station: "Z9250", Name: "Nanjing", Latitude: 32.19, Longitude: 118.70, Altitude: 134.9, Frequency: 2.8}

func writeRawFile(t *testing.T, name string, data []byte) domain.RawFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return domain.RawFile{Path: path, Name: name, Size: int64(len(data))}
}

func TestVolumeTransformer_SAB(t *testing.T) {
	renderDir := t.TempDir()
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(site.NewStaticTable([]site.Site{nanjing}), renderDir, slog.New(slog.DiscardHandler), metrics)

	raw := writeRawFile(t, "Z_RADR_I_Z9250_20160630000000_O_DOR_SA_CAP.bin",
		fixture.SABFile(fixture.SABRecordSize, fixture.SplitCutVolume()))

	rec, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "SAB", rec.Variant)
	assert.Equal(t, nanjing, rec.Site)
	assert.Equal(t, 2, rec.NSweeps)
	assert.Equal(t, 12, rec.NRays)
	assert.Equal(t, 1, rec.SplitCuts)
	assert.Equal(t, 920, rec.Gates)
	assert.InDelta(t, 250, rec.GateSpacing, 1e-9)
	require.Len(t, rec.Fields, 3)
	assert.Equal(t, basedata.MomentReflectivity, rec.Fields[2].Name)
	assert.Equal(t, 17.0, rec.Fields[2].Max)

	assert.FileExists(t, filepath.Join(renderDir, "Z_RADR_I_Z9250_20160630000000_O_DOR_SA_CAP.png"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SiteLookups.WithLabelValues("found")))
	assert.Equal(t, 12.0, testutil.ToFloat64(metrics.RaysDecoded.WithLabelValues("SAB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SplitCutsReconciled))
}

func TestVolumeTransformer_UnknownSiteDegrades(t *testing.T) {
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(site.StaticTable{}, "", slog.New(slog.DiscardHandler), metrics)

	raw := writeRawFile(t, "Z_RADR_I_Z9999_20160630000000_O_DOR_CB_CAP.bin",
		fixture.SABFile(fixture.CBRecordSize, fixture.SplitCutVolume()))

	rec, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "CB", rec.Variant)
	assert.Equal(t, site.Site{Station: "Z9999"}, rec.Site)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SiteLookups.WithLabelValues("missing")))
}

func TestVolumeTransformer_SC2(t *testing.T) {
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(nil, "", slog.New(slog.DiscardHandler), metrics)

	raw := writeRawFile(t, "Z_RADR_I_Z9280_20180209132700_O_DOR_SC_CAP.bin",
		fixture.SC2File(fixture.DefaultSC2Header(), 84, 192, 84, 128))

	rec, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "SC2", rec.Variant)
	assert.Equal(t, "Z9280", rec.Site.Station)
	assert.Equal(t, 3, rec.NSweeps)
	assert.Equal(t, 34, rec.NRays)
	assert.Equal(t, 34.0, testutil.ToFloat64(metrics.RaysDecoded.WithLabelValues("SC2")))
}

func TestVolumeTransformer_CorruptFile(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, "", slog.New(slog.DiscardHandler), newTestMetrics())

	raw := writeRawFile(t, "Z_RADR_I_Z9250_20160630000000_O_DOR_SA_CAP.bin", make([]byte, 1000))
	_, err := tfm.Transform(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, "format", basedata.ErrorKind(err))

	_, err = tfm.Transform(context.Background(), domain.RawFile{Path: filepath.Join(t.TempDir(), "missing.bin")})
	require.Error(t, err)
	assert.Equal(t, "io", basedata.ErrorKind(err))
}
