// Package geometry provides the observer-relative and sun-relative
// calculations behind pass and visibility work: topocentric look angles,
// the cylindrical Earth-shadow test, a low-precision solar ephemeris, and
// great-circle ground distance.
package geometry

import (
	"math"

	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// Vec3 is a Cartesian vector in km.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Observer is a ground station with its geodetic position in both unit
// systems and the trigonometry precomputed once, so the SEZ rotation inside
// a scan costs no repeated sin/cos of the site coordinates.
type Observer struct {
	LatDeg, LonDeg float64
	HeightM        float64

	LatRad, LonRad float64
	HeightKm       float64
	ECEF           Vec3 // km

	sinLat, cosLat float64
	sinLon, cosLon float64
}

// NewObserver creates an Observer from geodetic coordinates: latitude and
// longitude in degrees, height in meters above the WGS-84 ellipsoid.
func NewObserver(latDeg, lonDeg, heightM float64) Observer {
	latRad := latDeg * math.Pi / 180.0
	lonRad := lonDeg * math.Pi / 180.0
	heightKm := heightM / 1000.0

	x, y, z := transform.GeodeticToECEF(latRad, lonRad, heightKm)

	return Observer{
		LatDeg:   latDeg,
		LonDeg:   lonDeg,
		HeightM:  heightM,
		LatRad:   latRad,
		LonRad:   lonRad,
		HeightKm: heightKm,
		ECEF:     Vec3{x, y, z},
		sinLat:   math.Sin(latRad),
		cosLat:   math.Cos(latRad),
		sinLon:   math.Sin(lonRad),
		cosLon:   math.Cos(lonRad),
	}
}

// TEMEPosition returns the observer's position rotated into the inertial
// frame at the given sidereal angle, for geometry against TEME satellite
// and sun vectors.
func (o Observer) TEMEPosition(gmst float64) Vec3 {
	x, y, z := transform.ECEFToTEMEPosition(o.ECEF.X, o.ECEF.Y, o.ECEF.Z, gmst)
	return Vec3{x, y, z}
}
