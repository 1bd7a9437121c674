package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripfolio/tripfolio/internal/app/models"
)

func TestClassifyDecisionTable(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		event   models.TripEvent
		queries []string
	}{
		{
			"arrival uses airport",
			models.TripEvent{ID: id, Kind: models.EventArrival, Airport: "Charles de Gaulle"},
			[]string{"Charles de Gaulle"},
		},
		{
			"departure uses airport",
			models.TripEvent{ID: id, Kind: models.EventDeparture, Airport: "Narita"},
			[]string{"Narita"},
		},
		{
			"stay joins accommodation and address",
			models.TripEvent{ID: id, Kind: models.EventStay, AccommodationName: "Hotel Lutetia", Address: "45 Boulevard Raspail"},
			[]string{"Hotel Lutetia 45 Boulevard Raspail"},
		},
		{
			"destination joins place and address",
			models.TripEvent{ID: id, Kind: models.EventDestination, PlaceName: "Louvre", Address: "Paris"},
			[]string{"Louvre Paris"},
		},
		{
			"activity joins name and location",
			models.TripEvent{ID: id, Kind: models.EventActivity, ActivityName: "Sushi class", ActivityLocation: "Tsukiji"},
			[]string{"Sushi class Tsukiji"},
		},
		{
			"flight resolves origin then destination",
			models.TripEvent{ID: id, Kind: models.EventFlight, DepartureAirport: "CDG", ArrivalAirport: "NRT"},
			[]string{"CDG", "NRT"},
		},
		{
			"train resolves both stations",
			models.TripEvent{ID: id, Kind: models.EventTrain, DepartureStation: "Gare de Lyon", ArrivalStation: "Lyon Part-Dieu"},
			[]string{"Gare de Lyon", "Lyon Part-Dieu"},
		},
		{
			"rental car resolves pickup and dropoff",
			models.TripEvent{ID: id, Kind: models.EventRentalCar, PickupLocation: "Lyon Airport", DropoffLocation: "Nice Airport"},
			[]string{"Lyon Airport", "Nice Airport"},
		},
		{
			"bus resolves both stops",
			models.TripEvent{ID: id, Kind: models.EventBus, DepartureStop: "Gare Routiere", ArrivalStop: "Grenoble"},
			[]string{"Gare Routiere", "Grenoble"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := classify(tt.event)
			require.Len(t, queries, len(tt.queries))
			for i, q := range queries {
				assert.Equal(t, tt.queries[i], q.Text)
				assert.Equal(t, id, q.EventID)
			}
		})
	}
}

func TestClassifyEmptyEventYieldsNothing(t *testing.T) {
	assert.Empty(t, classify(models.TripEvent{Kind: models.EventStay}))
	assert.Empty(t, classify(models.TripEvent{Kind: models.EventFlight}))
}

func TestClassifyEmbeddedCoordinateRidesAlong(t *testing.T) {
	coord := &models.Coordinate{Latitude: 48.85, Longitude: 2.35}
	queries := classify(models.TripEvent{
		ID:         uuid.New(),
		Kind:       models.EventDestination,
		PlaceName:  "Louvre",
		Coordinate: coord,
	})
	require.Len(t, queries, 1)
	assert.Equal(t, coord, queries[0].Coordinate)
}

func TestTransportHintPrecedence(t *testing.T) {
	assert.Equal(t, models.TransportTrain, transportHint(models.EventTrain, models.EventFlight))
	assert.Equal(t, models.TransportTrain, transportHint(models.EventStay, models.EventTrain))
	assert.Equal(t, models.TransportFlight, transportHint(models.EventFlight, models.EventStay))
	assert.Equal(t, models.TransportFlight, transportHint(models.EventDestination, models.EventFlight))
	assert.Equal(t, models.TransportDriving, transportHint(models.EventStay, models.EventDestination))
	assert.Equal(t, models.TransportDriving, transportHint(models.EventBus, models.EventRentalCar))
}
