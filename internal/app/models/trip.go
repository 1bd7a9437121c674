package models

import "github.com/google/uuid"

// Trip is the engine's input: an identifier plus the event set to resolve.
// Event order does not need to be chronological; the engine sorts confirmed
// stops itself.
type Trip struct {
	ID     uuid.UUID   `json:"id"`
	Name   string      `json:"name"`
	Events []TripEvent `json:"events"`
}

// TripMapData is the consumer-facing result of one resolution pass: map-ready
// markers plus the travel paths between chronologically adjacent confirmed
// stops. Both slices empty with no error means "no locations found", which
// the presentation layer renders as a neutral state rather than an error.
type TripMapData struct {
	Locations []ResolvedLocation `json:"locations"`
	Routes    []CachedRouteEntry `json:"routes"`
}
