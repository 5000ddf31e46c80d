package groundtrack

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/gonum/floats"

	"github.com/star/satplot/internal/metrics"
	"github.com/star/satplot/internal/observability"
)

// Point is one sample of the track in decimal degrees.
type Point struct {
	Time       time.Time
	Latitude   float64 // [-90, 90]
	Longitude  float64 // [-180, 180]
	AltitudeKm float64
}

// Track is the ordered ground track of one satellite.
type Track struct {
	Satellite string
	Points    []Point
}

// Len returns the number of samples.
func (t *Track) Len() int { return len(t.Points) }

// Latitudes returns the latitude series in sample order.
func (t *Track) Latitudes() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Latitude
	}
	return out
}

// Longitudes returns the longitude series in sample order.
func (t *Track) Longitudes() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Longitude
	}
	return out
}

// Bounds is the latitude/longitude extent of a track.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Bounds returns the extent of the track; zero for an empty track.
func (t *Track) Bounds() Bounds {
	if len(t.Points) == 0 {
		return Bounds{}
	}
	lats, lons := t.Latitudes(), t.Longitudes()
	return Bounds{
		MinLat: floats.Min(lats),
		MaxLat: floats.Max(lats),
		MinLon: floats.Min(lons),
		MaxLon: floats.Max(lons),
	}
}

// Options tunes Sample. The zero value records nothing.
type Options struct {
	Metrics *metrics.Recorder
}

// Sample evaluates the sampler at every grid instant, in order. The first
// failure aborts the loop and no partial track is returned. ctx is checked
// between samples.
func Sample(ctx context.Context, s *Sampler, grid Grid, name string, opts Options) (*Track, error) {
	_, span := observability.Tracer().Start(ctx, "groundtrack.Sample")
	defer span.End()
	span.SetAttributes(
		attribute.String("satellite", name),
		attribute.Int("samples", grid.Len()),
		attribute.String("step", grid.Step().String()),
	)

	start := time.Now()
	points := make([]Point, 0, grid.Len())
	for i := 0; i < grid.Len(); i++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("sampling %s: %w", name, err)
		}

		t := grid.At(i)
		sp, err := s.Subpoint(t)
		if err != nil {
			opts.Metrics.PropagationFailed()
			span.RecordError(err)
			span.SetStatus(codes.Error, "propagation failed")
			return nil, fmt.Errorf("sampling %s at index %d (%s): %w",
				name, i, t.UTC().Format(time.RFC3339), err)
		}
		points = append(points, sp.Point())
	}

	opts.Metrics.SamplingDone(len(points), time.Since(start))
	return &Track{Satellite: name, Points: points}, nil
}
