package geo

import "math"

// HaversineMeters returns the great-circle distance between two points in
// meters on the mean Earth sphere.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const d = math.Pi / 180
	dLat := (lat2 - lat1) * d
	dLon := (lon2 - lon1) * d

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*d)*math.Cos(lat2*d)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
