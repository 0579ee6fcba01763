package geometry

import (
	"math"
	"testing"
	"time"
)

func TestSunECIDistance(t *testing.T) {
	// Distance stays within a few percent of one AU year-round, and the
	// January value (near perihelion) undercuts the July one (aphelion).
	jan := SunECI(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)).Norm()
	jul := SunECI(time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)).Norm()

	for _, r := range []float64{jan, jul} {
		if r < 0.97*astronomicalUnitKm || r > 1.03*astronomicalUnitKm {
			t.Errorf("sun distance %.4e km outside 3%% of an AU", r)
		}
	}
	if jan >= jul {
		t.Errorf("perihelion distance %.4e should undercut aphelion %.4e", jan, jul)
	}
}

func TestSunECIDeclination(t *testing.T) {
	decl := func(at time.Time) float64 {
		s := SunECI(at)
		return math.Asin(s.Z/s.Norm()) / deg2rad
	}

	// Solstices pin the declination at ±obliquity.
	june := decl(time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC))
	if math.Abs(june-23.44) > 0.5 {
		t.Errorf("June solstice declination = %.2f deg, want ~23.44", june)
	}

	dec := decl(time.Date(2026, 12, 21, 12, 0, 0, 0, time.UTC))
	if math.Abs(dec+23.44) > 0.5 {
		t.Errorf("December solstice declination = %.2f deg, want ~-23.44", dec)
	}

	// Equinox crosses zero.
	mar := decl(time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC))
	if math.Abs(mar) > 0.5 {
		t.Errorf("equinox declination = %.2f deg, want ~0", mar)
	}
}

func TestSunRightAscensionAtEquinox(t *testing.T) {
	// At the March equinox the sun sits at the vernal point: RA ~ 0.
	s := SunECI(time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC))
	ra := math.Atan2(s.Y, s.X) / deg2rad
	if math.Abs(ra) > 1.5 {
		t.Errorf("equinox right ascension = %.2f deg, want ~0", ra)
	}
}

func TestSunLookAnglesDayNight(t *testing.T) {
	obs := NewObserver(0, 0, 0)

	noon := SunLookAngles(obs, time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC))
	if noon.ElevationDeg < 45 {
		t.Errorf("noon sun elevation = %.1f deg, want high", noon.ElevationDeg)
	}

	midnight := SunLookAngles(obs, time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC))
	if midnight.ElevationDeg > -45 {
		t.Errorf("midnight sun elevation = %.1f deg, want deeply negative", midnight.ElevationDeg)
	}
}

func TestStationDark(t *testing.T) {
	obs := NewObserver(0, 0, 0)

	if StationDark(obs, time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)) {
		t.Error("equatorial noon flagged as dark")
	}
	if !StationDark(obs, time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)) {
		t.Error("equatorial midnight flagged as lit")
	}
}
