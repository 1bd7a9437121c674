package geocode

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
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and trims", "  Paris Museum ", "paris museum"},
		{"collapses whitespace", "paris \t  museum", "paris museum"},
		{"strips punctuation", "st. peter's basilica, rome!", "st peters basilica rome"},
		{"drops filler words", "The Hotel at Shibuya in Tokyo", "shibuya tokyo"},
		{"empty after stoplist", "the a an", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.in))
		})
	}
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.NewStore(
		cache.NewFileStorage(filepath.Join(t.TempDir(), "geocache.json")),
		cache.Options{},
		nil,
	)
	require.NoError(t, store.Load())
	return store
}

func testResolver(t *testing.T, baseURL string) *ServiceImpl {
	t.Helper()
	p := pipeline.New(nil, pipeline.Config{
		BaseDelay:     time.Millisecond,
		BackoffFactor: 1.5,
		MaxRetries:    3,
	}, nil)
	return NewServiceImpl(testStore(t), p, baseURL, nil)
}

func geocoderStub(t *testing.T, calls *int32, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(payload))
	}))
}

func TestResolveCachesNormalizedQuery(t *testing.T) {
	var calls int32
	srv := geocoderStub(t, &calls,
		`[{"lat":"48.8606","lon":"2.3376","display_name":"Louvre Museum, Paris"}]`)
	defer srv.Close()

	resolver := testResolver(t, srv.URL)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, Query{Text: "Paris Museum", EventID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 48.8606, first.Latitude)
	assert.Equal(t, "Louvre Museum, Paris", first.DisplayName)

	// Same place, different casing and spacing: served from cache.
	second, err := resolver.Resolve(ctx, Query{Text: "  paris   museum ", EventID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, first.Latitude, second.Latitude)
	assert.Equal(t, first.Longitude, second.Longitude)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestResolveEmbeddedCoordinateSkipsNetwork(t *testing.T) {
	var calls int32
	srv := geocoderStub(t, &calls, `[]`)
	defer srv.Close()

	resolver := testResolver(t, srv.URL)
	eventID := uuid.New()

	loc, err := resolver.Resolve(context.Background(), Query{
		Text:       "Somewhere",
		Coordinate: &models.Coordinate{Latitude: 35.6762, Longitude: 139.6503},
		EventID:    eventID,
	})
	require.NoError(t, err)
	assert.Equal(t, 35.6762, loc.Latitude)
	assert.Equal(t, eventID, loc.EventID)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestResolveNoCandidates(t *testing.T) {
	var calls int32
	srv := geocoderStub(t, &calls, `[]`)
	defer srv.Close()

	resolver := testResolver(t, srv.URL)

	_, err := resolver.Resolve(context.Background(), Query{Text: "nowhereville"})
	assert.ErrorIs(t, err, models.ErrNoResults)
}

func TestResolveMalformedResponse(t *testing.T) {
	var calls int32
	srv := geocoderStub(t, &calls, `<html>maintenance</html>`)
	defer srv.Close()

	resolver := testResolver(t, srv.URL)

	_, err := resolver.Resolve(context.Background(), Query{Text: "paris"})
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestResolveEmptyQueryIsNoResult(t *testing.T) {
	resolver := testResolver(t, "http://unused.invalid")

	_, err := resolver.Resolve(context.Background(), Query{Text: "the at of"})
	assert.ErrorIs(t, err, models.ErrNoResults)
}

func TestResolveTakesFirstCandidateOnly(t *testing.T) {
	var calls int32
	srv := geocoderStub(t, &calls,
		`[{"lat":"41.9028","lon":"12.4964","display_name":"Rome, Italy"},
		  {"lat":"43.2128","lon":"-75.4557","display_name":"Rome, New York"}]`)
	defer srv.Close()

	resolver := testResolver(t, srv.URL)

	loc, err := resolver.Resolve(context.Background(), Query{Text: "rome"})
	require.NoError(t, err)
	assert.Equal(t, "Rome, Italy", loc.DisplayName)
}
