package utils

import (
	"math"
	"testing"
)

// metersPerDegree is the arc length of one degree of latitude on a sphere
// of radius EarthRadiusMeters.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "Same point",
			lat1: 33.4996, lon1: 126.5312, lat2: 33.4996, lon2: 126.5312,
			want: 0, tolerance: 1e-9,
		},
		{
			name: "One degree of longitude on the equator",
			lat1: 0, lon1: 0, lat2: 0, lon2: 1,
			want: metersPerDegree, tolerance: 1e-6,
		},
		{
			name: "99 meters north",
			lat1: 33.4996, lon1: 126.5312, lat2: 33.4996 + 99/metersPerDegree, lon2: 126.5312,
			want: 99, tolerance: 1e-3,
		},
		{
			name: "101 meters north",
			lat1: 33.4996, lon1: 126.5312, lat2: 33.4996 + 101/metersPerDegree, lon2: 126.5312,
			want: 101, tolerance: 1e-3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceMeters() = %v, want %v (±%v)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(33.5104, 126.4914, 33.4581, 126.9425)
	b := DistanceMeters(33.4581, 126.9425, 33.5104, 126.4914)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}
