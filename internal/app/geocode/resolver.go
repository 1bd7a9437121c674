// Package geocode resolves free-text location queries to coordinates through
// a third-party geocoder, cache-first.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/cache"
	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/observability/metrics"
	"github.com/tripfolio/tripfolio/internal/app/pipeline"
)

// Query is the normalized request shape the classifier hands down: free text
// to geocode, or an embedded coordinate that short-circuits geocoding.
type Query struct {
	Text       string
	Coordinate *models.Coordinate
	EventID    uuid.UUID
}

var _ Service = (*ServiceImpl)(nil)

// Service resolves one query to a location. A nil result never happens; a
// dropped event is signalled through models.ErrNoResults.
type Service interface {
	Resolve(ctx context.Context, q Query) (*models.ResolvedLocation, error)
}

// ServiceImpl resolves against a Nominatim-style search endpoint through the
// rate-limited fetch pipeline, with the shared cache store in front.
type ServiceImpl struct {
	logger   *zap.Logger
	store    *cache.Store
	pipeline *pipeline.Pipeline
	baseURL  string
}

// NewServiceImpl creates the resolver.
func NewServiceImpl(store *cache.Store, p *pipeline.Pipeline, baseURL string, logger *zap.Logger) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{
		logger:   logger,
		store:    store,
		pipeline: p,
		baseURL:  baseURL,
	}
}

// candidate mirrors one geocoder result. Nominatim encodes coordinates as
// strings.
type candidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve turns a query into a resolved location. Embedded coordinates skip
// the network entirely; otherwise the normalized query is checked against
// the cache and only a miss reaches the geocoding service. Only the first
// candidate is consumed.
func (s *ServiceImpl) Resolve(ctx context.Context, q Query) (*models.ResolvedLocation, error) {
	ctx, span := otel.Tracer("tripfolio-engine").Start(ctx, "geocode.Resolve")
	defer span.End()

	m := metrics.Get()
	m.GeocodeRequestsTotal.Add(ctx, 1)

	if q.Coordinate != nil {
		span.SetAttributes(attribute.Bool("geocode.embedded", true))
		return &models.ResolvedLocation{
			Latitude:    q.Coordinate.Latitude,
			Longitude:   q.Coordinate.Longitude,
			DisplayName: q.Text,
			EventID:     q.EventID,
		}, nil
	}

	key := NormalizeQuery(q.Text)
	if key == "" {
		return nil, models.ErrNoResults
	}
	span.SetAttributes(attribute.String("geocode.query", key))

	if entry, ok := s.store.GetLocation(key); ok {
		m.CacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &models.ResolvedLocation{
			Latitude:    entry.Latitude,
			Longitude:   entry.Longitude,
			DisplayName: entry.DisplayName,
			EventID:     q.EventID,
		}, nil
	}
	m.CacheMissesTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	body, err := s.pipeline.Get(ctx, s.baseURL+"/search", map[string]string{
		"q":      key,
		"format": "json",
		"limit":  "1",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug("Geocoding lookup failed", zap.String("query", key), zap.Error(err))
		return nil, err
	}

	var candidates []candidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		s.logger.Debug("Geocoder response undecodable", zap.String("query", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if len(candidates) == 0 {
		return nil, models.ErrNoResults
	}

	first := candidates[0]
	lat, latErr := strconv.ParseFloat(first.Lat, 64)
	lon, lonErr := strconv.ParseFloat(first.Lon, 64)
	if latErr != nil || lonErr != nil || !models.ValidCoordinates(lat, lon) {
		return nil, models.ErrMalformedResponse
	}

	s.store.SetLocation(key, models.CachedLocationEntry{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: first.DisplayName,
		Timestamp:   time.Now(),
	})

	return &models.ResolvedLocation{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: first.DisplayName,
		EventID:     q.EventID,
	}, nil
}
