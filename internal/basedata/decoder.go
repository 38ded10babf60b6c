package basedata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/radar-basedata-etl/internal/site"
	"github.com/couchcryptid/radar-basedata-etl/internal/source"
)

// Decoder turns base data files into volumes. SAB family files carry no site
// metadata, so the decoder resolves it from a site table keyed by the station
// embedded in the file name. A Decoder holds no per-file state and is safe
// for concurrent use if its site table is.
type Decoder struct {
	sites  site.Table
	logger *slog.Logger
}

// NewDecoder creates a decoder. sites may be nil, in which case SAB family
// volumes only carry the station identifier.
func NewDecoder(sites site.Table, logger *slog.Logger) *Decoder {
	return &Decoder{sites: sites, logger: logger}
}

// DecodeFile opens, decompresses and decodes the file at path.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*Volume, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open base data: %w", err)
	}
	return d.Decode(ctx, path, src.Bytes())
}

// Decode detects the variant of data and decodes it. name is the file name or
// path and is used to find the station of SAB family files.
func (d *Decoder) Decode(ctx context.Context, name string, data []byte) (*Volume, error) {
	v, err := Detect(data)
	if err != nil {
		return nil, err
	}
	return d.DecodeAs(ctx, v, name, data)
}

// DecodeAs decodes data as variant v, skipping detection.
func (d *Decoder) DecodeAs(ctx context.Context, v Variant, name string, data []byte) (*Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case v.IsSABFamily():
		return d.decodeSAB(ctx, v, name, data)
	case v == VariantSC2:
		return d.decodeSC(data)
	default:
		return nil, formatErrorf("cannot decode variant %s", v)
	}
}

func (d *Decoder) decodeSAB(ctx context.Context, v Variant, name string, data []byte) (*Volume, error) {
	if !hasSABMarker(data) {
		return nil, formatErrorf("missing SA/SB/CB radial signature at offset %d", sabMarkerOff)
	}
	radials, err := DecodeSABRadials(v, data)
	if err != nil {
		return nil, err
	}
	idx, err := IndexSweepsByStatus(radials)
	if err != nil {
		return nil, err
	}
	rec, err := Reconcile(radials, idx)
	if err != nil {
		return nil, err
	}
	if len(rec.Pairs) > 0 {
		d.logger.Debug("split cuts reconciled", "file", name, "pairs", len(rec.Pairs), "sweeps", rec.Index.NSweeps())
	}
	plan, err := SABPlan(rec.Radials)
	if err != nil {
		return nil, err
	}
	grid, err := Resample(rec.Radials, rec.Index, plan)
	if err != nil {
		return nil, err
	}
	return AssembleSAB(v, rec, grid, d.lookupSite(ctx, name)), nil
}

func (d *Decoder) decodeSC(data []byte) (*Volume, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	radials, err := DecodeSCRadials(h, data[sc2HeaderSize:])
	if err != nil {
		return nil, err
	}
	idx, err := IndexSweepsByCounts(h.RecordCounts())
	if err != nil {
		return nil, err
	}
	plan, err := SCPlan(h)
	if err != nil {
		return nil, err
	}
	grid, err := Resample(radials, idx, plan)
	if err != nil {
		return nil, err
	}
	return AssembleSC(h, radials, idx, grid), nil
}

// lookupSite resolves the site of an SAB family file. Failures degrade to a
// site carrying only the station identifier.
func (d *Decoder) lookupSite(ctx context.Context, name string) site.Site {
	station := site.StationFromPath(name)
	if station == "" {
		d.logger.Warn("no station id in file name", "file", name)
		return site.Site{}
	}
	if d.sites == nil {
		return site.Site{Station: station}
	}
	s, err := d.sites.Lookup(ctx, station)
	if err != nil {
		d.logger.Warn("site lookup failed", "file", name, "station", station, "error", err)
		return site.Site{Station: station}
	}
	return s
}
