package geometry

import "math"

// meanEarthRadiusKm is the IUGG mean radius used for ground distance.
const meanEarthRadiusKm = 6371.0

// GroundDistanceKm returns the great-circle distance in km between two
// geodetic points, by the haversine formula on a spherical Earth.
func GroundDistanceKm(lat1Deg, lon1Deg, lat2Deg, lon2Deg float64) float64 {
	lat1 := lat1Deg * deg2rad
	lat2 := lat2Deg * deg2rad
	dLat := (lat2Deg - lat1Deg) * deg2rad
	dLon := (lon2Deg - lon1Deg) * deg2rad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Clamp against rounding before the square root hits asin.
	if a > 1 {
		a = 1
	}
	return 2 * meanEarthRadiusKm * math.Asin(math.Sqrt(a))
}
