package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/pkg/browser"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/star/satplot/internal/basemap"
	"github.com/star/satplot/internal/groundtrack"
)

var (
	landColor  = color.RGBA{R: 0xe6, G: 0xdc, B: 0xc3, A: 0xff}
	coastColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	trackColor = color.RGBA{G: 0x80, A: 0xff}
)

// ImageRenderer writes the map to a file whose extension picks the format
// (.png, .svg, .pdf, .jpg, ...).
type ImageRenderer struct {
	Output string
	Open   bool // open the file in the platform viewer afterwards
	Land   *basemap.Land
	Logger *slog.Logger

	open func(path string) error
}

// NewImageRenderer returns an ImageRenderer.
func NewImageRenderer(output string, open bool, land *basemap.Land, logger *slog.Logger) *ImageRenderer {
	return &ImageRenderer{Output: output, Open: open, Land: land, Logger: logger, open: browser.OpenFile}
}

// Render draws the track and saves the image.
func (r *ImageRenderer) Render(ctx context.Context, track *groundtrack.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := r.plot(track)
	if err != nil {
		return err
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, r.Output); err != nil {
		return fmt.Errorf("saving %s: %w", r.Output, err)
	}
	r.Logger.Info("map written", "path", r.Output, "points", track.Len())

	if r.Open && r.open != nil {
		if err := r.open(r.Output); err != nil {
			// The file is already on disk; a missing viewer is not fatal.
			r.Logger.Warn("could not open map viewer", "path", r.Output, "error", err)
		}
	}
	return nil
}

func (r *ImageRenderer) plot(track *groundtrack.Track) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = track.Satellite
	p.X.Label.Text = "Longitude (°)"
	p.Y.Label.Text = "Latitude (°)"
	p.X.Min, p.X.Max = minLon, maxLon
	p.Y.Min, p.Y.Max = minLat, maxLat
	p.X.Tick.Marker = degreeTicks(minLon, maxLon)
	p.Y.Tick.Marker = degreeTicks(minLat, maxLat)

	if r.Land != nil {
		for _, poly := range r.Land.Polygons {
			pp, err := landPolygon(poly)
			if err != nil {
				return nil, err
			}
			if pp != nil {
				p.Add(pp)
			}
		}
	}

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 0xb0}
	grid.Horizontal.Color = color.Gray{Y: 0xb0}
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(grid)

	if track.Len() > 0 {
		xys := make(plotter.XYs, track.Len())
		for i, pt := range track.Points {
			xys[i].X = pt.Longitude
			xys[i].Y = pt.Latitude
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("building track scatter: %w", err)
		}
		sc.GlyphStyle.Color = trackColor
		sc.GlyphStyle.Radius = vg.Points(0.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	return p, nil
}

// landPolygon converts an orb polygon (outer ring plus holes) to a filled
// plotter polygon with a coastline outline. Degenerate rings are dropped.
func landPolygon(poly orb.Polygon) (*plotter.Polygon, error) {
	var rings []plotter.XYer
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		xys := make(plotter.XYs, len(ring))
		for i, pt := range ring {
			xys[i].X = pt.Lon()
			xys[i].Y = pt.Lat()
		}
		rings = append(rings, xys)
	}
	if len(rings) == 0 {
		return nil, nil
	}

	pp, err := plotter.NewPolygon(rings...)
	if err != nil {
		return nil, fmt.Errorf("building land polygon: %w", err)
	}
	pp.Color = landColor
	pp.LineStyle.Color = coastColor
	pp.LineStyle.Width = vg.Points(0.4)
	return pp, nil
}

func degreeTicks(lo, hi float64) plot.ConstantTicks {
	var ticks []plot.Tick
	for v := lo; v <= hi; v += gridDeg {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}
