package engine

import (
	"strings"

	"github.com/tripfolio/tripfolio/internal/app/geocode"
	"github.com/tripfolio/tripfolio/internal/app/models"
)

// classify maps one event to its location queries: one query for point-like
// kinds, origin then destination for leg-like kinds. The order of the two
// legs is significant; the resolver must see origin first. This switch is
// the only place in the engine that inspects the event union.
func classify(ev models.TripEvent) []geocode.Query {
	switch ev.Kind {
	case models.EventArrival, models.EventDeparture:
		return pointQuery(ev, ev.Airport)
	case models.EventStay:
		return pointQuery(ev, joinParts(ev.AccommodationName, ev.Address))
	case models.EventDestination:
		return pointQuery(ev, joinParts(ev.PlaceName, ev.Address))
	case models.EventActivity:
		return pointQuery(ev, joinParts(ev.ActivityName, ev.ActivityLocation))
	case models.EventFlight:
		return legQueries(ev, ev.DepartureAirport, ev.ArrivalAirport)
	case models.EventTrain:
		return legQueries(ev, ev.DepartureStation, ev.ArrivalStation)
	case models.EventRentalCar:
		return legQueries(ev, ev.PickupLocation, ev.DropoffLocation)
	case models.EventBus:
		return legQueries(ev, ev.DepartureStop, ev.ArrivalStop)
	default:
		return nil
	}
}

// pointQuery builds the single query for a point-like event. An embedded
// coordinate rides along and short-circuits geocoding in the resolver.
func pointQuery(ev models.TripEvent, text string) []geocode.Query {
	if text == "" && ev.Coordinate == nil {
		return nil
	}
	return []geocode.Query{{
		Text:       text,
		Coordinate: ev.Coordinate,
		EventID:    ev.ID,
	}}
}

// legQueries builds the origin and destination queries for a two-endpoint
// event. Embedded coordinates are ambiguous between the two legs, so both
// legs always geocode by text.
func legQueries(ev models.TripEvent, origin, destination string) []geocode.Query {
	queries := make([]geocode.Query, 0, 2)
	if origin != "" {
		queries = append(queries, geocode.Query{Text: origin, EventID: ev.ID})
	}
	if destination != "" {
		queries = append(queries, geocode.Query{Text: destination, EventID: ev.ID})
	}
	return queries
}

// transportHint picks the route strategy for a chronologically adjacent pair
// of stops: train wins over flight, flight over the driving default.
func transportHint(a, b models.EventKind) models.TransportMode {
	if a == models.EventTrain || b == models.EventTrain {
		return models.TransportTrain
	}
	if a == models.EventFlight || b == models.EventFlight {
		return models.TransportFlight
	}
	return models.TransportDriving
}

func joinParts(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
