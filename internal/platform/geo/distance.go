package geo

import "math"

// earthRadiusMiles is the mean Earth radius calibrated for distances in miles.
const earthRadiusMiles = 3963.0

// Distance returns the great-circle distance between two points in miles,
// using the Haversine formula. Identical points return exactly 0.
func Distance(a, b Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}
