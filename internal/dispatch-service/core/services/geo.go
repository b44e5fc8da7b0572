package services

import (
	"math"

	"flytaxi/internal/dispatch-service/core/domain/model"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers. Identical points yield exactly 0.
func HaversineKm(a, b model.Coords) float64 {
	dlat := radians(b.Lat - a.Lat)
	dlon := radians(b.Lon - a.Lon)
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	// guard against float drift pushing h above 1 near antipodes
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
