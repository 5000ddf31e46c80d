// Package angle converts between decimal degrees and degree/minute/second
// triples.
//
// Sign convention: every component of a DMS triple carries the sign of the
// angle, so -12.5° is (-12, -30, 0) and -0.5° is (-0, -30, 0). Under this
// convention Decimal is a plain sum and stays correct for southern
// latitudes and western longitudes.
package angle

import (
	"fmt"
	"math"
)

// DMS is an angle split into degrees, minutes and seconds.
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
}

// FromDegrees splits a decimal-degree angle into a DMS triple.
// Degrees and Minutes are whole numbers; Seconds keeps the fraction.
func FromDegrees(deg float64) DMS {
	sign := 1.0
	if math.Signbit(deg) {
		sign = -1.0
		deg = -deg
	}

	d := math.Floor(deg)
	rem := (deg - d) * 60
	m := math.Floor(rem)
	s := (rem - m) * 60

	return DMS{
		Degrees: sign * d,
		Minutes: sign * m,
		Seconds: sign * s,
	}
}

// Decimal returns d + m/60 + s/3600.
func (a DMS) Decimal() float64 {
	return a.Degrees + a.Minutes/60 + a.Seconds/3600
}

// Negative reports whether the triple describes a negative angle.
func (a DMS) Negative() bool {
	return math.Signbit(a.Degrees) || math.Signbit(a.Minutes) || math.Signbit(a.Seconds)
}

// String formats the angle as -12°30'15.000". Seconds are rounded to the
// millisecond with the carry applied, so 59.9996" never prints as 60.000".
func (a DMS) String() string {
	ms := int64(math.Round(math.Abs(a.Decimal()) * 3600e3))
	sign := ""
	if a.Negative() && ms != 0 {
		sign = "-"
	}
	deg := ms / 3600e3
	ms -= deg * 3600e3
	mins := ms / 60e3
	ms -= mins * 60e3
	return fmt.Sprintf("%s%d°%02d'%02d.%03d\"", sign, deg, mins, ms/1000, ms%1000)
}
