// Package propagation wraps the SGP4 model for a single satellite.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/satplot/internal/transform"
)

// SGP4 library: github.com/joshuaferrara/go-satellite (pure Go, explicit
// TEME output).
//
// satellite.Propagate takes the Satellite by value, so SGP4 error codes are
// not visible to the caller. Failures are detected from the output instead:
// NaN/Inf components or an implausible radius.

var (
	// ErrInvalidTLE is returned when element lines cannot be handed to SGP4.
	ErrInvalidTLE = errors.New("invalid TLE")
	// ErrPropagationFailed is returned when SGP4 produces no usable state,
	// typically because the element set is stale or the orbit has decayed.
	ErrPropagationFailed = errors.New("sgp4 propagation failed")
)

// Gravity selects the SGP4 gravity constants.
type Gravity string

const (
	// GravityWGS72 is the constant set TLEs are generated with.
	GravityWGS72 Gravity = "wgs72"
	GravityWGS84 Gravity = "wgs84"
)

// ParseGravity maps a configuration string to a Gravity model.
func ParseGravity(s string) (Gravity, error) {
	switch Gravity(strings.ToLower(strings.TrimSpace(s))) {
	case GravityWGS72, "":
		return GravityWGS72, nil
	case GravityWGS84:
		return GravityWGS84, nil
	default:
		return "", fmt.Errorf("unknown gravity model %q (want wgs72 or wgs84)", s)
	}
}

func (g Gravity) constants() satellite.Gravity {
	if g == GravityWGS84 {
		return satellite.GravityWGS84
	}
	return satellite.GravityWGS72
}

// SGP4Propagator propagates one satellite's element set.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4Propagator initializes SGP4 from TLE lines.
//
// Line shape is checked first: go-satellite calls log.Fatal on malformed
// input, which would kill the process.
func NewSGP4Propagator(line1, line2 string, noradID int, gravity Gravity) (*SGP4Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("%w for NORAD %d: %v", ErrInvalidTLE, noradID, err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), gravity.constants())
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w for NORAD %d: init code=%d %s", ErrPropagationFailed, noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: noradID}, nil
}

// NORADID returns the catalog number the propagator was built for.
func (p *SGP4Propagator) NORADID() int {
	return p.noradID
}

func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// Propagate computes the TEME state (km, km/s) at a whole-second UTC time.
func (p *SGP4Propagator) Propagate(year, month, day, hour, min, sec int) (transform.PositionTEME, error) {
	pos, vel := satellite.Propagate(p.sat, year, month, day, hour, min, sec)

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("%w for NORAD %d: output is NaN/Inf", ErrPropagationFailed, p.noradID)
	}

	state := transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}

	// Between ~6200 km and ~50000 km from Earth's centre.
	if r := state.Radius(); r < 6200.0 || r > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("%w for NORAD %d: unreasonable position magnitude %.1f km", ErrPropagationFailed, p.noradID, r)
	}

	return state, nil
}

// PropagateAt computes the TEME state at an arbitrary instant.
//
// The library resolves whole seconds only. A sub-second instant is
// cubic-Hermite interpolated between the two bracketing whole-second
// states, which keeps LEO positions within about a metre.
func (p *SGP4Propagator) PropagateAt(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	floor := t.Truncate(time.Second)

	s0, err := p.propagateWhole(floor)
	if err != nil {
		return transform.PositionTEME{}, err
	}

	frac := t.Sub(floor).Seconds()
	if frac == 0 {
		return s0, nil
	}

	s1, err := p.propagateWhole(floor.Add(time.Second))
	if err != nil {
		return transform.PositionTEME{}, err
	}

	return hermite(s0, s1, frac), nil
}

func (p *SGP4Propagator) propagateWhole(t time.Time) (transform.PositionTEME, error) {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	return p.Propagate(year, int(month), day, hour, min, sec)
}

// hermite interpolates position across a one-second interval using the
// endpoint velocities as tangents; velocity is interpolated linearly.
func hermite(a, b transform.PositionTEME, s float64) transform.PositionTEME {
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return transform.PositionTEME{
		X:  h00*a.X + h10*a.VX + h01*b.X + h11*b.VX,
		Y:  h00*a.Y + h10*a.VY + h01*b.Y + h11*b.VY,
		Z:  h00*a.Z + h10*a.VZ + h01*b.Z + h11*b.VZ,
		VX: a.VX + (b.VX-a.VX)*s,
		VY: a.VY + (b.VY-a.VY)*s,
		VZ: a.VZ + (b.VZ-a.VZ)*s,
	}
}
