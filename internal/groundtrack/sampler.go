package groundtrack

import (
	"fmt"
	"time"

	"github.com/star/satplot/internal/angle"
	"github.com/star/satplot/internal/transform"
)

// Propagator yields a TEME state for an instant.
// *propagation.SGP4Propagator satisfies it.
type Propagator interface {
	PropagateAt(t time.Time) (transform.PositionTEME, error)
}

// Subpoint is the geodetic point beneath the satellite, with both angles
// as DMS triples.
type Subpoint struct {
	Time       time.Time
	Latitude   angle.DMS
	Longitude  angle.DMS
	AltitudeKm float64
}

// Point returns the decimal-degree form of the subpoint.
func (s Subpoint) Point() Point {
	return Point{
		Time:       s.Time,
		Latitude:   s.Latitude.Decimal(),
		Longitude:  s.Longitude.Decimal(),
		AltitudeKm: s.AltitudeKm,
	}
}

// Sampler turns propagated states into subpoints.
type Sampler struct {
	prop Propagator
}

// NewSampler returns a Sampler backed by prop.
func NewSampler(prop Propagator) *Sampler {
	return &Sampler{prop: prop}
}

// Subpoint propagates to t, rotates TEME into ECEF with GMST and converts
// to WGS-84 geodetic coordinates.
func (s *Sampler) Subpoint(t time.Time) (Subpoint, error) {
	teme, err := s.prop.PropagateAt(t)
	if err != nil {
		return Subpoint{}, fmt.Errorf("propagating to %s: %w", t.UTC().Format(time.RFC3339Nano), err)
	}

	ecef := transform.TEMEToECEF(teme, t)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	return Subpoint{
		Time:       t,
		Latitude:   angle.FromDegrees(geo.LatDeg),
		Longitude:  angle.FromDegrees(geo.LonDeg),
		AltitudeKm: geo.AltM / 1000,
	}, nil
}
