package geo

import "github.com/golang/geo/s2"

const (
	// EarthRadiusM is the mean Earth radius used for great-circle distances.
	EarthRadiusM = 6371000.0
)

// DistanceM returns the great-circle distance between two lat/lng pairs in
// meters.
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusM
}

// DistanceKm returns the great-circle distance between two lat/lng pairs in
// kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceM(lat1, lng1, lat2, lng2) / 1000
}
