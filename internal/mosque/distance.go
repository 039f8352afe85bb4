// Package mosque orders and filters the mosque list for display.
package mosque

import (
	"fmt"
	"math"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b api.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Long - a.Long) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance returns the rounded distance in meters from origin to m. The second
// return is false when either side has no coordinates.
func Distance(origin *api.Coordinates, m api.Mosque) (int, bool) {
	if origin == nil || m.Coordinates == nil {
		return 0, false
	}
	return int(math.Round(Haversine(*origin, *m.Coordinates))), true
}

// FormatDistance renders meters as "850 m" below a kilometer and "1.23 km"
// from there on.
func FormatDistance(meters int) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", float64(meters)/1000)
	}
	return fmt.Sprintf("%d m", meters)
}
