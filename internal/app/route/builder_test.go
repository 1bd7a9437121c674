package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripfolio/tripfolio/internal/app/cache"
	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/pipeline"
	"github.com/tripfolio/tripfolio/internal/app/spatial"
)

var (
	paris  = models.ResolvedLocation{Latitude: 48.8566, Longitude: 2.3522, DisplayName: "Paris"}
	lyon   = models.ResolvedLocation{Latitude: 45.7640, Longitude: 4.8357, DisplayName: "Lyon"}
	tokyo  = models.ResolvedLocation{Latitude: 35.6762, Longitude: 139.6503, DisplayName: "Tokyo"}
	osrmOK = `{"code":"Ok","routes":[{"geometry":{"coordinates":[[2.3522,48.8566],[3.0,47.0],[4.8357,45.764]]},"duration":16200,"distance":465000}]}`
)

func testBuilder(t *testing.T, routingURL, railURL string) *ServiceImpl {
	t.Helper()
	store := cache.NewStore(
		cache.NewFileStorage(filepath.Join(t.TempDir(), "geocache.json")),
		cache.Options{},
		nil,
	)
	require.NoError(t, store.Load())
	p := pipeline.New(nil, pipeline.Config{
		BaseDelay:     time.Millisecond,
		BackoffFactor: 1.5,
		MaxRetries:    3,
	}, nil)
	return NewServiceImpl(store, p, routingURL, railURL, nil)
}

func TestBuildDrivingDecodesRoute(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		_, _ = w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	builder := testBuilder(t, srv.URL, "")

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportDriving)
	require.NoError(t, err)
	assert.Len(t, entry.Coordinates, 3)
	// GeoJSON lon,lat order is flipped into lat,lon.
	assert.Equal(t, 48.8566, entry.Coordinates[0].Latitude)
	assert.Equal(t, 2.3522, entry.Coordinates[0].Longitude)
	assert.Equal(t, 16200.0, entry.DurationSeconds)
	assert.Equal(t, 465000.0, entry.DistanceMeters)
	assert.Equal(t, models.TransportDriving, entry.Transport)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestBuildDrivingFallsBackToStraightLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	builder := testBuilder(t, srv.URL, "")

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportDriving)
	require.NoError(t, err)
	require.Len(t, entry.Coordinates, 2)
	assert.Equal(t, paris.Coordinate(), entry.Coordinates[0])
	assert.Equal(t, lyon.Coordinate(), entry.Coordinates[1])
	assert.InDelta(t, spatial.HaversineMeters(paris.Coordinate(), lyon.Coordinate()), entry.DistanceMeters, 1)
	assert.Zero(t, entry.DurationSeconds)
}

func TestBuildRouteCacheIsEndpointKeyed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	builder := testBuilder(t, srv.URL, "")
	ctx := context.Background()

	_, err := builder.Build(ctx, paris, lyon, models.TransportDriving)
	require.NoError(t, err)

	// Same coordinates from an unrelated event pair reuse the cached route.
	from, to := paris, lyon
	from.EventID = uuid.New()
	to.EventID = uuid.New()
	_, err = builder.Build(ctx, from, to, models.TransportDriving)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestBuildFlightSynthesizesArc(t *testing.T) {
	builder := testBuilder(t, "http://unused.invalid", "")

	entry, err := builder.Build(context.Background(), paris, tokyo, models.TransportFlight)
	require.NoError(t, err)

	require.Len(t, entry.Coordinates, flightPathPoints)
	last := entry.Coordinates[len(entry.Coordinates)-1]
	assert.InDelta(t, paris.Latitude, entry.Coordinates[0].Latitude, 1e-9)
	assert.InDelta(t, paris.Longitude, entry.Coordinates[0].Longitude, 1e-9)
	assert.InDelta(t, tokyo.Latitude, last.Latitude, 1e-9)
	assert.InDelta(t, tokyo.Longitude, last.Longitude, 1e-9)

	// Midpoint is laterally offset from the straight chord.
	mid := entry.Coordinates[flightPathPoints/2]
	chordMidLat := (paris.Latitude + tokyo.Latitude) / 2
	assert.NotEqual(t, chordMidLat, mid.Latitude)

	assert.Greater(t, entry.DurationSeconds, 0.0)
	assert.Greater(t, entry.DistanceMeters, 9_000_000.0)
	assert.False(t, entry.DepartureTime.IsZero())
	assert.True(t, entry.ArrivalTime.After(entry.DepartureTime))
}

func TestBuildFlightDurationUsesCruiseSpeed(t *testing.T) {
	builder := testBuilder(t, "http://unused.invalid", "")

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportFlight)
	require.NoError(t, err)

	wantMinutes := entry.DistanceMeters / 1000 / cruiseSpeedKmh * 60
	assert.InDelta(t, wantMinutes, entry.DurationSeconds/60, 1)
}

func TestBuildTrainStraightLineWithoutRailService(t *testing.T) {
	builder := testBuilder(t, "http://unused.invalid", "")

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportTrain)
	require.NoError(t, err)
	require.Len(t, entry.Coordinates, 2)
	assert.Equal(t, models.TransportTrain, entry.Transport)
	assert.Zero(t, entry.DurationSeconds)
}

func TestBuildTrainKeepsFallbackWhenRailLookupFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	builder := testBuilder(t, "http://unused.invalid", srv.URL)

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportTrain)
	require.NoError(t, err)
	assert.Len(t, entry.Coordinates, 2)
}

func TestBuildTrainEnrichesFromRailSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("data"), "railway")
		_, _ = w.Write([]byte(`{"elements":[
			{"geometry":[{"lat":48.8,"lon":2.4},{"lat":48.0,"lon":3.0}]},
			{"geometry":[{"lat":46.5,"lon":4.2},{"lat":45.8,"lon":4.8}]}
		]}`))
	}))
	defer srv.Close()

	builder := testBuilder(t, "http://unused.invalid", srv.URL)

	entry, err := builder.Build(context.Background(), paris, lyon, models.TransportTrain)
	require.NoError(t, err)
	assert.Len(t, entry.Coordinates, 4)
	assert.Equal(t, models.TransportTrain, entry.Transport)
}

func TestBuildCancelledPassPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	builder := testBuilder(t, srv.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := builder.Build(ctx, paris, lyon, models.TransportDriving)
	assert.ErrorIs(t, err, context.Canceled)
}
