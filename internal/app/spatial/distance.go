package spatial

import (
	"math"

	"github.com/tripfolio/tripfolio/internal/app/models"
)

const earthRadiusKm = 6371

// HaversineMeters calculates the great-circle distance between two points
// and returns it in meters.
func HaversineMeters(a, b models.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * 1000
}

// HaversineKm is HaversineMeters in kilometers.
func HaversineKm(a, b models.Coordinate) float64 {
	return HaversineMeters(a, b) / 1000
}

// BoundingBox returns the south, west, north, east bounds enclosing both
// points, padded by the given margin in degrees.
func BoundingBox(a, b models.Coordinate, margin float64) (south, west, north, east float64) {
	south = math.Min(a.Latitude, b.Latitude) - margin
	north = math.Max(a.Latitude, b.Latitude) + margin
	west = math.Min(a.Longitude, b.Longitude) - margin
	east = math.Max(a.Longitude, b.Longitude) + margin
	return south, west, north, east
}
