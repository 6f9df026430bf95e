package geo

import "math"

// Средний радиус Земли, метры.
const earthRadiusM = 6371000.0

// DistanceMeters считает расстояние по дуге большого круга (haversine)
// между двумя точками в градусах. NaN на входе даёт NaN на выходе.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
