package route

import (
	"math"
	"time"

	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/spatial"
)

const (
	// flightPathPoints is the number of synthesized points per flight arc.
	flightPathPoints = 24
	// flightCurveFactor scales the lateral offset of the arc relative to the
	// segment length, in degrees.
	flightCurveFactor = 0.2
	// cruiseSpeedKmh is the flat speed used for the duration estimate.
	cruiseSpeedKmh = 800
)

// buildFlight synthesizes an arced path between the endpoints without any
// network call. The lateral offset peaks mid-flight (amplitude proportional
// to progress*(1-progress)) to suggest a great-circle curve on the map.
// Departure/arrival timestamps are cosmetic estimates derived from now.
func (s *ServiceImpl) buildFlight(from, to models.ResolvedLocation) *models.CachedRouteEntry {
	dLat := to.Latitude - from.Latitude
	dLon := to.Longitude - from.Longitude
	segLen := math.Hypot(dLat, dLon)

	// Unit vector perpendicular to the segment, for the lateral offset.
	perpLat, perpLon := 0.0, 0.0
	if segLen > 0 {
		perpLat = -dLon / segLen
		perpLon = dLat / segLen
	}

	coords := make([]models.Coordinate, 0, flightPathPoints)
	for i := 0; i < flightPathPoints; i++ {
		t := float64(i) / float64(flightPathPoints-1)
		offset := flightCurveFactor * segLen * t * (1 - t)
		coords = append(coords, models.Coordinate{
			Latitude:  from.Latitude + dLat*t + perpLat*offset,
			Longitude: from.Longitude + dLon*t + perpLon*offset,
		})
	}

	distanceMeters := spatial.HaversineMeters(from.Coordinate(), to.Coordinate())
	durationMinutes := math.Round(distanceMeters / 1000 / cruiseSpeedKmh * 60)
	duration := time.Duration(durationMinutes) * time.Minute

	now := time.Now()
	return &models.CachedRouteEntry{
		Coordinates:     coords,
		DurationSeconds: duration.Seconds(),
		DistanceMeters:  distanceMeters,
		Transport:       models.TransportFlight,
		DepartureTime:   now,
		ArrivalTime:     now.Add(duration),
	}
}
