package geometry

import (
	"math"
	"testing"
)

func TestGroundDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tol              float64
	}{
		{"same point", 40.7, -74.0, 40.7, -74.0, 0, 1e-9},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.19, 0.3},
		{"NYC to LA", 40.7128, -74.0060, 34.0522, -118.2437, 3936, 40},
		{"antipodal", 0, 0, 0, 180, math.Pi * meanEarthRadiusKm, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroundDistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("distance = %.2f km, want %.2f ± %.2f", got, tt.want, tt.tol)
			}

			// Symmetric in its arguments.
			rev := GroundDistanceKm(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(got-rev) > 1e-9 {
				t.Errorf("asymmetric: %.6f vs %.6f", got, rev)
			}
		})
	}
}
