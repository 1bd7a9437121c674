package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the trip event union. Every event carries exactly
// one kind; kind-specific fields below are only meaningful for that kind.
type EventKind string

const (
	EventArrival     EventKind = "arrival"
	EventDeparture   EventKind = "departure"
	EventStay        EventKind = "stay"
	EventDestination EventKind = "destination"
	EventFlight      EventKind = "flight"
	EventTrain       EventKind = "train"
	EventRentalCar   EventKind = "rental_car"
	EventBus         EventKind = "bus"
	EventActivity    EventKind = "activity"
)

// EventStatus marks an event as finalized or tentative. Only confirmed
// events participate in the route sequence.
type EventStatus string

const (
	StatusConfirmed EventStatus = "confirmed"
	StatusExploring EventStatus = "exploring"
)

// TripEvent is a tagged variant over the nine event kinds. Matching on Kind
// is confined to the engine's classifier; everything downstream works on
// normalized location queries instead of this union.
type TripEvent struct {
	ID        uuid.UUID   `json:"id"`
	Kind      EventKind   `json:"kind"`
	Status    EventStatus `json:"status"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date,omitempty"`

	// Optional coordinate embedded directly on the event. When present the
	// resolver skips geocoding entirely.
	Coordinate *Coordinate `json:"coordinate,omitempty"`

	// arrival / departure
	Airport string `json:"airport,omitempty"`

	// stay
	AccommodationName string    `json:"accommodation_name,omitempty"`
	CheckIn           time.Time `json:"check_in,omitempty"`
	CheckOut          time.Time `json:"check_out,omitempty"`

	// destination
	PlaceName string `json:"place_name,omitempty"`

	// shared free-text address (stay, destination, activity)
	Address string `json:"address,omitempty"`

	// flight
	DepartureAirport string `json:"departure_airport,omitempty"`
	ArrivalAirport   string `json:"arrival_airport,omitempty"`

	// train
	DepartureStation string `json:"departure_station,omitempty"`
	ArrivalStation   string `json:"arrival_station,omitempty"`

	// rental_car
	PickupLocation  string `json:"pickup_location,omitempty"`
	DropoffLocation string `json:"dropoff_location,omitempty"`

	// bus
	DepartureStop string `json:"departure_stop,omitempty"`
	ArrivalStop   string `json:"arrival_stop,omitempty"`

	// activity
	ActivityName     string `json:"activity_name,omitempty"`
	ActivityLocation string `json:"activity_location,omitempty"`
}

// StartTime returns the chronological sort key for the event. Stays sort by
// check-in rather than the generic start date.
func (e TripEvent) StartTime() time.Time {
	if e.Kind == EventStay && !e.CheckIn.IsZero() {
		return e.CheckIn
	}
	return e.StartDate
}

// IsConfirmed reports whether the event participates in route building.
func (e TripEvent) IsConfirmed() bool {
	return e.Status == StatusConfirmed
}
