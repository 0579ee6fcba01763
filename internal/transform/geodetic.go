package transform

import "math"

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137              // semi-major axis (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Geodetic holds a geodetic position: latitude/longitude in degrees,
// height above the WGS-84 ellipsoid in km.
type Geodetic struct {
	LatDeg, LonDeg, HeightKm float64
}

// GeodeticToECEF converts geodetic coordinates (radians, km above the
// ellipsoid) to ECEF km.
func GeodeticToECEF(latRad, lonRad, heightKm float64) (x, y, z float64) {
	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x = (n + heightKm) * cosLat * math.Cos(lonRad)
	y = (n + heightKm) * cosLat * math.Sin(lonRad)
	z = (n*(1-wgs84E2) + heightKm) * sinLat
	return x, y, z
}

// ECEFToGeodetic converts ECEF coordinates (km) to geodetic coordinates
// using the iterative Bowring method. Converges in 2-3 iterations for
// Earth orbits; 5 are run.
func ECEFToGeodetic(x, y, z float64) Geodetic {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var h float64
	if math.Abs(cosLat) > 1e-10 {
		h = p/cosLat - n
	} else {
		h = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg:   lat * 180.0 / math.Pi,
		LonDeg:   lon * 180.0 / math.Pi,
		HeightKm: h,
	}
}
