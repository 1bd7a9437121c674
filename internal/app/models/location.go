package models

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a plain latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidCoordinates checks latitude/longitude ranges and rejects the (0,0)
// null island pair, which in practice means missing data.
func ValidCoordinates(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ResolvedLocation is one geocoded map marker. Two-endpoint events (flight,
// train, rental car, bus) produce one ResolvedLocation per leg, both pointing
// back at the same originating event.
type ResolvedLocation struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DisplayName string    `json:"display_name"`
	EventID     uuid.UUID `json:"event_id"`
}

// Coordinate returns the location's lat/lon pair.
func (l ResolvedLocation) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// CachedLocationEntry is the persisted form of a geocoding result, keyed by
// the normalized query string. The entry is valid while
// now - Timestamp < the location TTL.
type CachedLocationEntry struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DisplayName string    `json:"display_name"`
	Timestamp   time.Time `json:"timestamp"`
}
