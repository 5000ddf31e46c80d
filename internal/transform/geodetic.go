package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticPoint is a position on or above the WGS-84 ellipsoid.
type GeodeticPoint struct {
	LatDeg float64 // [-90, 90]
	LonDeg float64 // [-180, 180]
	AltM   float64 // height above the ellipsoid
}

// ECEFToGeodetic converts ECEF meters to geodetic coordinates with
// Bowring's iteration. Five iterations are ample for orbital altitudes.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// GeodeticToECEF is the inverse of ECEFToGeodetic.
func GeodeticToECEF(g GeodeticPoint) PositionECEF {
	lat := g.LatDeg * math.Pi / 180.0
	lon := g.LonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return PositionECEF{
		X: (N + g.AltM) * cosLat * math.Cos(lon),
		Y: (N + g.AltM) * cosLat * math.Sin(lon),
		Z: (N*(1-wgs84E2) + g.AltM) * sinLat,
	}
}
