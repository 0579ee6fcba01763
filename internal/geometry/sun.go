package geometry

import (
	"math"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

const (
	astronomicalUnitKm = 1.49597870691e8
	deg2rad            = math.Pi / 180.0
	twoPi              = 2.0 * math.Pi
)

// civilTwilightDeg is the sun elevation below which a station counts as
// dark for visibility purposes.
const civilTwilightDeg = -6.0

// SunECI returns the geocentric sun position in km in the inertial frame,
// from the low-precision series of the Astronomical Almanac. Accuracy is
// about 0.01 degrees, plenty for shadow and phase-angle geometry.
func SunECI(t time.Time) Vec3 {
	// Days from epoch 1900 Jan 0.5, then Julian centuries of ephemeris time.
	d := transform.JulianDate(t) - 2415020.0
	year := 1900 + d/365.25
	tc := (d + deltaET(year)/86400.0) / 36525.0

	// Mean anomaly, mean longitude, eccentricity, equation of center.
	m := deg2rad * norm360(358.47583+norm360(35999.04975*tc)-(0.000150+0.0000033*tc)*tc*tc)
	l := deg2rad * norm360(279.69668+norm360(36000.76892*tc)+0.0003025*tc*tc)
	e := 0.01675104 - (0.0000418+0.000000126*tc)*tc
	c := deg2rad * ((1.919460-(0.004789+0.000014*tc)*tc)*math.Sin(m) +
		(0.020094-0.000100*tc)*math.Sin(2*m) + 0.000293*math.Sin(3*m))

	// Apparent longitude with aberration and the principal nutation term.
	o := deg2rad * norm360(259.18-1934.142*tc)
	lsa := math.Mod(l+c-deg2rad*(0.00569-0.00479*math.Sin(o)), twoPi)

	// True anomaly and distance.
	nu := math.Mod(m+c, twoPi)
	r := astronomicalUnitKm * 1.0000002 * (1.0 - e*e) / (1.0 + e*math.Cos(nu))

	// Obliquity of the ecliptic.
	eps := deg2rad * (23.452294 - (0.0130125+(0.00000164-0.000000503*tc)*tc)*tc + 0.00256*math.Cos(o))

	return Vec3{
		X: r * math.Cos(lsa),
		Y: r * math.Sin(lsa) * math.Cos(eps),
		Z: r * math.Sin(lsa) * math.Sin(eps),
	}
}

// SunLookAngles returns the sun's topocentric look angles for an observer.
func SunLookAngles(o Observer, t time.Time) LookAngles {
	sun := SunECI(t)
	gmst := transform.GMST(t)
	s := transform.TEMEToECEFAtGMST(transform.StateTEME{X: sun.X, Y: sun.Y, Z: sun.Z}, gmst)
	return o.LookAt(Vec3{s.X, s.Y, s.Z})
}

// StationDark reports whether the station is in civil darkness: sun more
// than 6 degrees below the horizon.
func StationDark(o Observer, t time.Time) bool {
	return SunLookAngles(o, t).ElevationDeg < civilTwilightDeg
}

// deltaET approximates ephemeris time minus universal time in seconds,
// from a least-squares fit over 1950-1991 observations. The drift since
// then is tens of seconds, negligible against the sun's daily motion.
func deltaET(year float64) float64 {
	return 26.465 + 0.747622*(year-1950) + 1.886913*math.Sin(twoPi*(year-1975)/33)
}

// norm360 reduces an angle in degrees to [0, 360).
func norm360(deg float64) float64 {
	v := math.Mod(deg, 360.0)
	if v < 0 {
		v += 360.0
	}
	return v
}
