package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// TestJulianDate verifies the Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

func TestModifiedJulianDate(t *testing.T) {
	// MJD 51544.5 is the J2000.0 epoch.
	got := ModifiedJulianDate(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(got-51544.5) > 1e-6 {
		t.Errorf("ModifiedJulianDate(J2000) = %.6f, want 51544.5", got)
	}
}

// TestGMST validates the GMST calculation against the go-satellite library's
// GSTimeFromDate function, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := GMST(tt.time)
			// go-satellite's GSTimeFromDate returns GMST in radians.
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// 1e-8 radians ≈ 0.06 arcsec.
			if diff > 1e-8 {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}

func TestGMSTWithDUT1(t *testing.T) {
	at := time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC)
	base := GMST(at)
	shifted := GMSTWithDUT1(at, 0.5)

	// Half a second of UT1 advances the angle by ~0.5 * ω_earth.
	want := 0.5 * OmegaEarth
	got := shifted - base
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("dUT1=0.5s shifted GMST by %.3e rad, want %.3e", got, want)
	}
}

// TestTEMEToECEF validates the rotation against go-satellite's ECIToECEF
// using the same GMST. Both use the GMST-only rotation, so they should
// agree to floating point precision.
func TestTEMEToECEF(t *testing.T) {
	tests := []struct {
		name string
		teme StateTEME
		time time.Time
	}{
		{
			// Vallado "Fundamentals of Astrodynamics" Example 3-15
			name: "Vallado example 3-15",
			teme: StateTEME{
				X: 5094.18016, Y: 6127.64465, Z: 6380.34453,
				VX: -4.746131487, VY: 0.786598499, VZ: 5.531931288,
			},
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		},
		{
			name: "LEO equatorial",
			teme: StateTEME{
				X: 6778.0, Y: 0.0, Z: 0.0,
				VX: 0.0, VY: 7.5, VZ: 0.0,
			},
			time: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "LEO polar",
			teme: StateTEME{
				X: 0.0, Y: 0.0, Z: 6978.0,
				VX: 7.4, VY: 0.0, VZ: 0.0,
			},
			time: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gmst := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			our := TEMEToECEFAtGMST(tt.teme, gmst)
			ref := satellite.ECIToECEF(
				satellite.Vector3{X: tt.teme.X, Y: tt.teme.Y, Z: tt.teme.Z},
				gmst,
			)

			// Tolerance: 1 meter.
			const tol = 1e-3 // km
			if math.Abs(our.X-ref.X) > tol || math.Abs(our.Y-ref.Y) > tol || math.Abs(our.Z-ref.Z) > tol {
				t.Errorf("position mismatch:\n  ours: [%.6f, %.6f, %.6f] km\n  ref:  [%.6f, %.6f, %.6f] km",
					our.X, our.Y, our.Z, ref.X, ref.Y, ref.Z)
			}
		})
	}
}

// TestTEMEToECEFVelocity verifies the velocity transform includes the Earth
// rotation correction.
func TestTEMEToECEFVelocity(t *testing.T) {
	// Prograde equatorial satellite at longitude 0°.
	teme := StateTEME{
		X: 6778.0, Y: 0.0, Z: 0.0,
		VX: 0.0, VY: 7.5, VZ: 0.0,
	}
	// GMST = 0 aligns the TEME X-axis with the ECEF X-axis.
	ecef := TEMEToECEFAtGMST(teme, 0.0)

	if math.Abs(ecef.X-6778.0) > 1e-4 {
		t.Errorf("X position: got %.4f km, want 6778.0", ecef.X)
	}

	// Earth rotation at this radius: ω*R = 7.292115e-5 * 6778 = 0.4943 km/s.
	expectedVY := 7.5 - OmegaEarth*6778.0
	if math.Abs(ecef.VY-expectedVY) > 1e-4 {
		t.Errorf("VY: got %.4f km/s, want %.4f km/s", ecef.VY, expectedVY)
	}
}

func TestECEFToTEMEPositionRoundTrip(t *testing.T) {
	teme := StateTEME{X: 5094.18016, Y: 6127.64465, Z: 6380.34453}
	gmst := 1.75

	ecef := TEMEToECEFAtGMST(teme, gmst)
	xi, yi, zi := ECEFToTEMEPosition(ecef.X, ecef.Y, ecef.Z, gmst)

	if math.Abs(xi-teme.X) > 1e-9 || math.Abs(yi-teme.Y) > 1e-9 || math.Abs(zi-teme.Z) > 1e-9 {
		t.Errorf("round trip drifted: got [%.12f, %.12f, %.12f], want [%.12f, %.12f, %.12f]",
			xi, yi, zi, teme.X, teme.Y, teme.Z)
	}
}
