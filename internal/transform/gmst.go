package transform

import (
	"math"
	"time"
)

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC
// time, treating UT1 = UTC. Uses the IAU-82 model as described in Vallado,
// "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST(t time.Time) float64 {
	return GMSTWithDUT1(t, 0)
}

// GMSTWithDUT1 calculates GMST in radians with a UT1-UTC offset applied.
// The offset is at most ±0.9 s; it matters only when Earth-orientation data
// is loaded.
func GMSTWithDUT1(t time.Time, dut1Sec float64) float64 {
	jdUT1 := JulianDate(t.UTC()) + dut1Sec/86400.0
	tUT1 := (jdUT1 - j2000) / 36525.0

	// GMST in seconds of time.
	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Normalize to [0, 86400) seconds, then convert to radians.
	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
