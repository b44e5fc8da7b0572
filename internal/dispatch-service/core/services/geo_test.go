package services

import (
	"math"
	"testing"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name      string
		a, b      model.Coords
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "identical points",
			a:         model.Coords{Lat: 50.4501, Lon: 30.5234},
			b:         model.Coords{Lat: 50.4501, Lon: 30.5234},
			wantKm:    0,
			tolerance: 0,
		},
		{
			name:      "one degree of latitude",
			a:         model.Coords{Lat: 0, Lon: 0},
			b:         model.Coords{Lat: 1, Lon: 0},
			wantKm:    111.19,
			tolerance: 0.1,
		},
		{
			name:      "kyiv to lviv",
			a:         model.Coords{Lat: 50.4501, Lon: 30.5234},
			b:         model.Coords{Lat: 49.8397, Lon: 24.0297},
			wantKm:    468,
			tolerance: 5,
		},
		{
			name:      "antipodal points stay finite",
			a:         model.Coords{Lat: 0, Lon: 0},
			b:         model.Coords{Lat: 0, Lon: 180},
			wantKm:    20015,
			tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("HaversineKm returned NaN")
			}
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm = %.3f, want %.3f (+-%.3f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := model.Coords{Lat: 50.4501, Lon: 30.5234}
	b := model.Coords{Lat: 50.4021, Lon: 30.3926}
	if d1, d2 := HaversineKm(a, b), HaversineKm(b, a); d1 != d2 {
		t.Errorf("asymmetric distance: %.6f vs %.6f", d1, d2)
	}
}
