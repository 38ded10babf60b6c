// Package render draws decoded volumes as images.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
)

// ErrNoData is returned when the requested sweep has no valid gates.
var ErrNoData = errors.New("render: no valid gates in sweep")

// Options selects what PPI draws.
type Options struct {
	Sweep int
	Field string // defaults to dBZ

	// Color scale bounds. When equal, dBZ uses -5..75 and velocity uses the
	// sweep's nyquist interval; other fields use the data range.
	Min, Max float64

	Size vg.Length // square image side, defaults to 8in
}

const paletteSize = 64

// PPI plots one sweep of a field on a plan position indicator: gates are
// placed at their ground-projected east/north distance (km) from the radar
// and colored by value.
func PPI(vol *basedata.Volume, opts Options) (*plot.Plot, error) {
	if opts.Field == "" {
		opts.Field = basedata.MomentReflectivity
	}
	field, ok := vol.Fields[opts.Field]
	if !ok {
		return nil, fmt.Errorf("render: no field %q", opts.Field)
	}
	if opts.Sweep < 0 || opts.Sweep >= vol.NSweeps() {
		return nil, fmt.Errorf("render: sweep %d out of range [0, %d)", opts.Sweep, vol.NSweeps())
	}

	var (
		pts    plotter.XYs
		values []float64
	)
	for ray := vol.SweepStart[opts.Sweep]; ray <= vol.SweepEnd[opts.Sweep]; ray++ {
		az := vol.Azimuth[ray] * math.Pi / 180
		cosEl := math.Cos(vol.Elevation[ray] * math.Pi / 180)
		for gate, v := range field.Row(ray) {
			if basedata.IsMissing(v) {
				continue
			}
			ground := vol.Range[gate] * cosEl / 1000
			pts = append(pts, plotter.XY{X: ground * math.Sin(az), Y: ground * math.Cos(az)})
			values = append(values, float64(v))
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	lo, hi := colorRange(vol, opts, values)
	colors := palette.Heat(paletteSize, 1).Colors()

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  pick(colors, values[i], lo, hi),
			Radius: vg.Points(0.6),
			Shape:  draw.BoxGlyph{},
		}
	}

	p := plot.New()
	p.Title.Text = title(vol, opts)
	p.X.Label.Text = "East (km)"
	p.Y.Label.Text = "North (km)"
	p.Add(plotter.NewGrid(), sc)

	// Keep the aspect square around the radar.
	extent := vol.Range[len(vol.Range)-1] / 1000
	p.X.Min, p.X.Max = -extent, extent
	p.Y.Min, p.Y.Max = -extent, extent
	return p, nil
}

// SavePPI renders a PPI and writes it to path; the format follows the
// extension (.png, .svg, .pdf).
func SavePPI(vol *basedata.Volume, opts Options, path string) error {
	p, err := PPI(vol, opts)
	if err != nil {
		return err
	}
	size := opts.Size
	if size == 0 {
		size = 8 * vg.Inch
	}
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

func colorRange(vol *basedata.Volume, opts Options, values []float64) (float64, float64) {
	if opts.Min != opts.Max {
		return opts.Min, opts.Max
	}
	switch opts.Field {
	case basedata.MomentReflectivity, basedata.MomentTotalReflectivity:
		return -5, 75
	case basedata.MomentVelocity:
		if ny := vol.NyquistVelocity[opts.Sweep]; ny > 0 {
			return -ny, ny
		}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func pick(colors []color.Color, v, lo, hi float64) color.Color {
	i := int((v - lo) / (hi - lo) * float64(len(colors)-1))
	return colors[max(0, min(len(colors)-1, i))]
}

func title(vol *basedata.Volume, opts Options) string {
	t := fmt.Sprintf("%s %s %.2f°", vol.Site.Station, opts.Field, vol.FixedAngle[opts.Sweep])
	if len(vol.Time) > 0 {
		t += " " + vol.Time[vol.SweepStart[opts.Sweep]].UTC().Format("2006-01-02 15:04 UTC")
	}
	return t
}
