// Package groundtrack samples a satellite's sub-satellite point over a
// fixed window of evenly spaced instants.
package groundtrack

import (
	"errors"
	"fmt"
	"math/bits"
	"time"
)

var (
	// ErrInvalidResolution is returned for a sample count that is not
	// positive or that exceeds the horizon in nanoseconds.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrInvalidHorizon is returned for a horizon that is not positive.
	ErrInvalidHorizon = errors.New("invalid horizon")
)

// Grid is N evenly spaced instants after a start time. Instant k (1-based)
// is start + floor(k·horizon/N), so the last instant is exactly
// start + horizon and the start itself is not sampled.
type Grid struct {
	start   time.Time
	horizon time.Duration
	n       int
}

// NewGrid builds the grid for n samples over horizon.
func NewGrid(start time.Time, horizon time.Duration, n int) (Grid, error) {
	if n <= 0 {
		return Grid{}, fmt.Errorf("%w: %d samples", ErrInvalidResolution, n)
	}
	if horizon <= 0 {
		return Grid{}, fmt.Errorf("%w: %s", ErrInvalidHorizon, horizon)
	}
	if int64(n) > int64(horizon) {
		return Grid{}, fmt.Errorf("%w: %d samples over %s would repeat instants", ErrInvalidResolution, n, horizon)
	}
	return Grid{start: start, horizon: horizon, n: n}, nil
}

// Len returns the number of instants.
func (g Grid) Len() int { return g.n }

// Start returns the grid's reference time, which is not itself an instant.
func (g Grid) Start() time.Time { return g.start }

// Horizon returns the span from Start to End.
func (g Grid) Horizon() time.Duration { return g.horizon }

// Step returns the nominal spacing horizon/N, truncated to a nanosecond.
func (g Grid) Step() time.Duration { return g.horizon / time.Duration(g.n) }

// End returns the last instant, exactly Start + Horizon.
func (g Grid) End() time.Time { return g.start.Add(g.horizon) }

// At returns instant i for 0 <= i < Len().
func (g Grid) At(i int) time.Time {
	if i < 0 || i >= g.n {
		panic(fmt.Sprintf("groundtrack: grid index %d out of range [0, %d)", i, g.n))
	}
	return g.start.Add(g.offset(uint64(i + 1)))
}

// Instants materialises every instant in order.
func (g Grid) Instants() []time.Time {
	out := make([]time.Time, g.n)
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}

// offset computes floor(k·h/n) without overflow: k·(h/n) + k·(h%n)/n,
// with the second product done in 128 bits.
func (g Grid) offset(k uint64) time.Duration {
	h := uint64(g.horizon)
	n := uint64(g.n)
	q, r := h/n, h%n
	hi, lo := bits.Mul64(k, r)
	frac, _ := bits.Div64(hi, lo, n)
	return time.Duration(k*q + frac)
}
