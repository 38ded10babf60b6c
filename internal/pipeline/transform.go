package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/observability"
	"github.com/couchcryptid/radar-basedata-etl/internal/render"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

// VolumeTransformer implements Transformer by decoding base data files and
// summarizing the volumes, optionally rendering a reflectivity PPI of the
// lowest sweep.
type VolumeTransformer struct {
	decoder   *basedata.Decoder
	renderDir string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewTransformer creates a VolumeTransformer. sites may be nil, in which
// case volumes carry only the station id. An empty renderDir disables
// rendering.
func NewTransformer(sites site.Table, renderDir string, logger *slog.Logger, metrics *observability.Metrics) *VolumeTransformer {
	var table site.Table
	if sites != nil {
		table = &meteredTable{inner: sites, metrics: metrics}
	}
	return &VolumeTransformer{
		decoder:   basedata.NewDecoder(table, logger),
		renderDir: renderDir,
		metrics:   metrics,
		logger:    logger,
	}
}

func (t *VolumeTransformer) Transform(ctx context.Context, raw domain.RawFile) (domain.VolumeRecord, error) {
	start := time.Now()
	vol, err := t.decoder.DecodeFile(ctx, raw.Path)
	if err != nil {
		return domain.VolumeRecord{}, err
	}

	variant := vol.Variant.String()
	t.metrics.DecodeDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())
	t.metrics.RaysDecoded.WithLabelValues(variant).Add(float64(vol.NRays()))
	t.metrics.SplitCutsReconciled.Add(float64(vol.SplitCuts))

	if t.renderDir != "" {
		t.render(vol, raw.Name)
	}

	return domain.Summarize(raw.Path, vol), nil
}

// render writes <name>.png; failures are logged and never fail the file.
func (t *VolumeTransformer) render(vol *basedata.Volume, name string) {
	if _, ok := vol.Fields[basedata.MomentReflectivity]; !ok {
		return
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	path := filepath.Join(t.renderDir, base+".png")
	err := render.SavePPI(vol, render.Options{Field: basedata.MomentReflectivity}, path)
	switch {
	case errors.Is(err, render.ErrNoData):
		t.logger.Debug("no reflectivity to render", "file", name)
	case err != nil:
		t.logger.Warn("render failed", "file", name, "error", err)
	}
}

// meteredTable counts site lookups by result.
type meteredTable struct {
	inner   site.Table
	metrics *observability.Metrics
}

func (m *meteredTable) Lookup(ctx context.Context, station string) (site.Site, error) {
	s, err := m.inner.Lookup(ctx, station)
	result := "found"
	switch {
	case errors.Is(err, site.ErrNotFound):
		result = "missing"
	case err != nil:
		result = "error"
	}
	m.metrics.SiteLookups.WithLabelValues(result).Inc()
	return s, err
}
