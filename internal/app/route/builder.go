// Package route builds inter-stop travel paths with a transport-appropriate
// strategy and a shared, endpoint-keyed cache.
package route

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/cache"
	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/observability/metrics"
	"github.com/tripfolio/tripfolio/internal/app/pipeline"
	"github.com/tripfolio/tripfolio/internal/app/spatial"
)

var _ Service = (*ServiceImpl)(nil)

// Service builds one route between two resolved stops.
type Service interface {
	Build(ctx context.Context, from, to models.ResolvedLocation, transport models.TransportMode) (*models.CachedRouteEntry, error)
}

// ServiceImpl talks to an OSRM-style routing service for driving routes and
// an Overpass-style map-data service for best-effort rail enrichment. Flight
// paths are synthesized locally and never hit the network.
type ServiceImpl struct {
	logger     *zap.Logger
	store      *cache.Store
	pipeline   *pipeline.Pipeline
	routingURL string
	railURL    string
}

// NewServiceImpl creates the route builder.
func NewServiceImpl(store *cache.Store, p *pipeline.Pipeline, routingURL, railURL string, logger *zap.Logger) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{
		logger:     logger,
		store:      store,
		pipeline:   p,
		routingURL: routingURL,
		railURL:    railURL,
	}
}

// routeKey is the endpoint-coordinate cache key, rounded to 4 decimals so
// unrelated event pairs connecting the same two points share one entry.
func routeKey(from, to models.ResolvedLocation) string {
	return fmt.Sprintf("%.4f,%.4f|%.4f,%.4f",
		from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// Build returns the cached route for the endpoint pair or computes one with
// the strategy for the given transport mode. Strategy failures degrade to a
// straight-line approximation; only cancellation propagates as an error.
func (s *ServiceImpl) Build(ctx context.Context, from, to models.ResolvedLocation, transport models.TransportMode) (*models.CachedRouteEntry, error) {
	ctx, span := otel.Tracer("tripfolio-engine").Start(ctx, "route.Build")
	defer span.End()
	span.SetAttributes(attribute.String("route.transport", string(transport)))

	m := metrics.Get()
	m.RouteRequestsTotal.Add(ctx, 1)

	key := routeKey(from, to)
	if entry, ok := s.store.GetRoute(key); ok {
		m.CacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &entry, nil
	}
	m.CacheMissesTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var (
		entry *models.CachedRouteEntry
		err   error
	)
	switch transport {
	case models.TransportFlight:
		entry = s.buildFlight(from, to)
	case models.TransportTrain:
		entry, err = s.buildTrain(ctx, from, to)
	default:
		entry, err = s.buildDriving(ctx, from, to)
	}
	if err != nil {
		return nil, err
	}

	entry.Timestamp = time.Now()
	s.store.SetRoute(key, *entry)
	return entry, nil
}

// osrmResponse mirrors the routing service payload with GeoJSON geometry.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (s *ServiceImpl) buildDriving(ctx context.Context, from, to models.ResolvedLocation) (*models.CachedRouteEntry, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f",
		s.routingURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)
	body, err := s.pipeline.Get(ctx, url, map[string]string{
		"overview":   "full",
		"geometries": "geojson",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug("Routing service unavailable, using straight line", zap.Error(err))
		return straightLine(from, to, models.TransportDriving), nil
	}

	var decoded osrmResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		s.logger.Debug("Routing response unusable, using straight line",
			zap.String("code", decoded.Code), zap.Error(err))
		return straightLine(from, to, models.TransportDriving), nil
	}

	r := decoded.Routes[0]
	coords := make([]models.Coordinate, 0, len(r.Geometry.Coordinates))
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		// GeoJSON order is lon,lat
		coords = append(coords, models.Coordinate{Latitude: pair[1], Longitude: pair[0]})
	}
	if len(coords) < 2 {
		return straightLine(from, to, models.TransportDriving), nil
	}

	return &models.CachedRouteEntry{
		Coordinates:     coords,
		DurationSeconds: r.Duration,
		DistanceMeters:  r.Distance,
		Transport:       models.TransportDriving,
	}, nil
}

// overpassResponse mirrors the rail-segment lookup payload.
type overpassResponse struct {
	Elements []struct {
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// buildTrain defaults to a straight line and tries a best-effort rail-segment
// enrichment around the endpoints. An unusable lookup silently keeps the
// fallback. The segments are consumed in the order the service returns them,
// without reconstructing a continuous path.
func (s *ServiceImpl) buildTrain(ctx context.Context, from, to models.ResolvedLocation) (*models.CachedRouteEntry, error) {
	entry := straightLine(from, to, models.TransportTrain)

	if s.railURL == "" {
		return entry, nil
	}
	south, west, north, east := spatial.BoundingBox(from.Coordinate(), to.Coordinate(), 0.05)
	query := fmt.Sprintf(`[out:json];way["railway"="rail"](%f,%f,%f,%f);out geom;`,
		south, west, north, east)

	body, err := s.pipeline.Get(ctx, s.railURL, map[string]string{"data": query})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Debug("Rail segment lookup failed, keeping straight line", zap.Error(err))
		return entry, nil
	}

	var decoded overpassResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		s.logger.Debug("Rail segment response undecodable, keeping straight line", zap.Error(err))
		return entry, nil
	}

	coords := make([]models.Coordinate, 0)
	for _, el := range decoded.Elements {
		for _, node := range el.Geometry {
			coords = append(coords, models.Coordinate{Latitude: node.Lat, Longitude: node.Lon})
		}
	}
	if len(coords) < 2 {
		return entry, nil
	}
	entry.Coordinates = coords
	return entry, nil
}

// straightLine is the universal fallback: the two endpoints with haversine
// distance and no duration estimate.
func straightLine(from, to models.ResolvedLocation, transport models.TransportMode) *models.CachedRouteEntry {
	return &models.CachedRouteEntry{
		Coordinates:    []models.Coordinate{from.Coordinate(), to.Coordinate()},
		DistanceMeters: spatial.HaversineMeters(from.Coordinate(), to.Coordinate()),
		Transport:      transport,
	}
}
