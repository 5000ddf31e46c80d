// Package basemap provides the land polygons drawn under a ground track.
package basemap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/star/satplot/internal/remote"
)

// DefaultURL is the Natural Earth 1:110m land layer.
const DefaultURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_land.geojson"

// Land is a set of land polygons in lon/lat degrees.
type Land struct {
	Polygons []orb.Polygon
	bounds   []orb.Bound
}

// NewLand indexes polygons for Contains.
func NewLand(polygons []orb.Polygon) *Land {
	l := &Land{Polygons: polygons, bounds: make([]orb.Bound, len(polygons))}
	for i, p := range polygons {
		l.bounds[i] = p.Bound()
	}
	return l
}

// Empty reports whether there is nothing to draw.
func (l *Land) Empty() bool {
	return l == nil || len(l.Polygons) == 0
}

// Contains reports whether (lon, lat) falls on land.
func (l *Land) Contains(lon, lat float64) bool {
	if l == nil {
		return false
	}
	pt := orb.Point{lon, lat}
	for i, p := range l.Polygons {
		if !l.bounds[i].Contains(pt) {
			continue
		}
		if planar.PolygonContains(p, pt) {
			return true
		}
	}
	return false
}

// Decode reads a GeoJSON FeatureCollection and keeps its polygon and
// multipolygon geometries. Other geometry types are ignored.
func Decode(data []byte) (*Land, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding land GeoJSON: %w", err)
	}

	var polygons []orb.Polygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		}
	}
	return NewLand(polygons), nil
}

// Config configures Load.
type Config struct {
	URL      string
	CacheDir string
	MaxAge   time.Duration
	MaxFiles int
}

// Load fetches the land layer (or a fresh cached copy). Any failure is
// logged and yields an empty layer so the track can still be drawn.
func Load(ctx context.Context, cfg Config, logger *slog.Logger) *Land {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	src := remote.NewSource(remote.SourceConfig{
		URL:      url,
		CacheDir: cfg.CacheDir,
		Kind:     "land",
		Ext:      ".geojson",
		MaxAge:   cfg.MaxAge,
		MaxFiles: cfg.MaxFiles,
	}, logger)

	res, err := src.Get(ctx)
	if err != nil {
		logger.Warn("basemap unavailable, drawing track only", "url", url, "error", err)
		return NewLand(nil)
	}

	land, err := Decode(res.Data)
	if err != nil {
		logger.Warn("basemap unreadable, drawing track only", "url", url, "error", err)
		return NewLand(nil)
	}

	logger.Debug("basemap loaded", "url", url, "origin", res.Origin, "polygons", len(land.Polygons))
	return land
}
