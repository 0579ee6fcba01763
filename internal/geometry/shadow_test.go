package geometry

import (
	"testing"
	"time"
)

func TestInShadow(t *testing.T) {
	sun := Vec3{X: astronomicalUnitKm} // sun along +X

	tests := []struct {
		name string
		sat  Vec3
		want bool
	}{
		{"directly behind Earth", Vec3{X: -7000}, true},
		{"sunlit side", Vec3{X: 7000}, false},
		{"anti-sun, inside cylinder", Vec3{X: -7000, Y: 6377}, true},
		{"anti-sun, outside cylinder", Vec3{X: -7000, Y: 6379.5}, false},
		{"terminator plane", Vec3{Y: 7000}, false},
		{"deep anti-sun, on axis", Vec3{X: -42164}, true},
		{"anti-sun, high z offset", Vec3{X: -7000, Z: 6500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InShadow(tt.sat, sun); got != tt.want {
				t.Errorf("InShadow(%+v) = %v, want %v", tt.sat, got, tt.want)
			}
		})
	}
}

func TestInShadowZeroSun(t *testing.T) {
	// Degenerate sun vector must not divide by zero.
	if InShadow(Vec3{X: -7000}, Vec3{}) {
		t.Error("zero sun vector should report sunlit")
	}
}

// TestInShadowOppositeSun places the satellite exactly anti-sunward at a
// realistic epoch: the cylinder test must flag it regardless of season.
func TestInShadowOppositeSun(t *testing.T) {
	for month := time.January; month <= time.December; month += 3 {
		at := time.Date(2026, month, 15, 6, 0, 0, 0, time.UTC)
		sun := SunECI(at)
		r := sun.Norm()

		sat := Vec3{X: -sun.X / r * 6800, Y: -sun.Y / r * 6800, Z: -sun.Z / r * 6800}
		if !InShadow(sat, sun) {
			t.Errorf("%v: anti-solar point at 6800 km should be eclipsed", at)
		}
		lit := Vec3{X: sun.X / r * 6800, Y: sun.Y / r * 6800, Z: sun.Z / r * 6800}
		if InShadow(lit, sun) {
			t.Errorf("%v: sub-solar point at 6800 km should be sunlit", at)
		}
	}
}
