package models

import "time"

// TransportMode selects the route building strategy between two stops.
type TransportMode string

const (
	TransportDriving TransportMode = "driving"
	TransportTrain   TransportMode = "train"
	TransportFlight  TransportMode = "flight"
)

// CachedRouteEntry is one inter-stop travel path, persisted under the
// rounded endpoint-coordinate key so unrelated event pairs connecting the
// same two points share a single entry. Invariant: Coordinates always holds
// at least the two endpoints.
type CachedRouteEntry struct {
	Coordinates     []Coordinate  `json:"coordinates"`
	DurationSeconds float64       `json:"duration_seconds"`
	DistanceMeters  float64       `json:"distance_meters"`
	Transport       TransportMode `json:"transport_type"`
	Timestamp       time.Time     `json:"timestamp"`

	// Cosmetic estimates filled in by the flight strategy only.
	DepartureTime time.Time `json:"departure_time,omitempty"`
	ArrivalTime   time.Time `json:"arrival_time,omitempty"`
}
