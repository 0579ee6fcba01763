// Package transform provides the coordinate frame chain for satellite
// positions: Julian date and sidereal time, TEME (True Equator Mean Equinox,
// the SGP4 output frame) to ECEF (Earth-Centered Earth-Fixed), ECEF to
// geodetic, and optional Earth-orientation corrections.
//
// Method: Vallado-style rotation using GMST (TEME → PEF ≈ ECEF). Without
// Earth-orientation data this ignores polar motion and UT1-UTC, introducing
// tens of meters of error at most, well inside the tolerance of look-angle
// and shadow work. When an EOP table is loaded, Frames applies both terms.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// StateTEME is a satellite position and velocity in the TEME frame (km, km/s).
type StateTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// StateECEF is a satellite position and velocity in the ECEF frame (km, km/s).
type StateECEF struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// TEMEToECEF transforms a TEME state to ECEF at the given UTC time,
// with UT1 = UTC and no polar motion. Use Frames when EOP data is loaded.
func TEMEToECEF(s StateTEME, t time.Time) StateECEF {
	return TEMEToECEFAtGMST(s, GMST(t))
}

// TEMEToECEFAtGMST transforms TEME to ECEF using a precomputed GMST angle
// (radians). Useful when placing multiple satellites at the same instant:
// compute GMST once.
//
// Position: r_ECEF = R3(θ) * r_TEME
// Velocity: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
//
// where R3(θ) rotates about the Z-axis by GMST and ω = [0, 0, ω_earth].
func TEMEToECEFAtGMST(s StateTEME, gmst float64) StateECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := s.X*cosG + s.Y*sinG
	y := -s.X*sinG + s.Y*cosG
	z := s.Z

	vxRot := s.VX*cosG + s.VY*sinG
	vyRot := -s.VX*sinG + s.VY*cosG

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	return StateECEF{
		X: x, Y: y, Z: z,
		VX: vxRot + OmegaEarth*y,
		VY: vyRot - OmegaEarth*x,
		VZ: s.VZ,
	}
}

// ECEFToTEMEPosition rotates an ECEF position (km) into TEME at the given
// GMST angle. Velocity is not carried; the inverse is used to place fixed
// ground points in the inertial frame for phase-angle geometry.
func ECEFToTEMEPosition(x, y, z, gmst float64) (xi, yi, zi float64) {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	xi = x*cosG - y*sinG
	yi = x*sinG + y*cosG
	zi = z
	return xi, yi, zi
}
