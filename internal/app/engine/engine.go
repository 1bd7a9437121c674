// Package engine turns a trip's heterogeneous event set into map-ready
// locations and inter-stop routes in one sequential resolution pass.
package engine

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/geocode"
	"github.com/tripfolio/tripfolio/internal/app/models"
	"github.com/tripfolio/tripfolio/internal/app/observability/metrics"
	"github.com/tripfolio/tripfolio/internal/app/route"
)

// passState tracks where a resolution pass currently is. Transitions are
// linear; cancellation exits from any state and discards accumulated work.
type passState string

const (
	stateIdle       passState = "idle"
	stateResolving  passState = "resolving"
	stateSequencing passState = "sequencing"
	stateRouting    passState = "routing"
	stateReady      passState = "ready"
	stateCancelled  passState = "cancelled"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the single operation the presentation layer consumes. The
// caller's context is the pass's liveness flag: once it ends, the pass stops
// issuing calls and yields nothing.
type Service interface {
	BuildTripMap(ctx context.Context, trip models.Trip) (*models.TripMapData, error)
}

// ServiceImpl drives the resolver and route builder strictly sequentially,
// one call at a time in event order, so the pipeline's single spacing policy
// holds across the whole pass.
type ServiceImpl struct {
	logger   *zap.Logger
	resolver geocode.Service
	routes   route.Service
}

// NewServiceImpl creates the engine.
func NewServiceImpl(resolver geocode.Service, routes route.Service, logger *zap.Logger) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{
		logger:   logger,
		resolver: resolver,
		routes:   routes,
	}
}

// resolvedStop pairs a marker with the event metadata needed for sequencing
// and transport inference. Downstream consumers only ever see the location.
type resolvedStop struct {
	location  models.ResolvedLocation
	kind      models.EventKind
	confirmed bool
	start     time.Time
}

// BuildTripMap runs one resolution pass. Per-event and per-route failures
// are isolated: a failed lookup drops that marker or route, never the pass.
// Cancellation discards all partial work, so the consumer-visible state is
// exactly what it was before the pass started.
func (s *ServiceImpl) BuildTripMap(ctx context.Context, trip models.Trip) (*models.TripMapData, error) {
	ctx, span := otel.Tracer("tripfolio-engine").Start(ctx, "engine.BuildTripMap",
		trace.WithAttributes(
			attribute.String("trip.id", trip.ID.String()),
			attribute.Int("trip.events", len(trip.Events)),
		))
	defer span.End()

	m := metrics.Get()
	m.PassesTotal.Add(ctx, 1)
	started := time.Now()
	defer func() {
		m.PassDurationSeconds.Record(ctx, time.Since(started).Seconds())
	}()

	l := s.logger.With(zap.String("trip_id", trip.ID.String()))

	// RESOLVING: strictly sequential, in event order. Two-leg events resolve
	// origin then destination in that order.
	state := stateResolving
	l.Debug("Pass state", zap.String("state", string(state)))

	stops := make([]resolvedStop, 0, len(trip.Events))
	for _, ev := range trip.Events {
		if err := ctx.Err(); err != nil {
			return s.cancelled(l, span, err)
		}
		for _, q := range classify(ev) {
			loc, err := s.resolver.Resolve(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return s.cancelled(l, span, ctx.Err())
				}
				l.Debug("Event location dropped",
					zap.String("event_id", ev.ID.String()),
					zap.String("kind", string(ev.Kind)),
					zap.Error(err),
				)
				continue
			}
			stops = append(stops, resolvedStop{
				location:  *loc,
				kind:      ev.Kind,
				confirmed: ev.IsConfirmed(),
				start:     ev.StartTime(),
			})
		}
	}

	// SEQUENCING: route endpoints are confirmed stops only, in chronological
	// order. Exploring stops stay in the marker list but never in a route.
	state = stateSequencing
	l.Debug("Pass state", zap.String("state", string(state)))

	confirmed := make([]resolvedStop, 0, len(stops))
	for _, stop := range stops {
		if stop.confirmed {
			confirmed = append(confirmed, stop)
		}
	}
	sort.SliceStable(confirmed, func(i, j int) bool {
		return confirmed[i].start.Before(confirmed[j].start)
	})

	// ROUTING: one route per adjacent pair, sequentially.
	state = stateRouting
	l.Debug("Pass state", zap.String("state", string(state)))

	routes := make([]models.CachedRouteEntry, 0)
	for i := 0; i+1 < len(confirmed); i++ {
		if err := ctx.Err(); err != nil {
			return s.cancelled(l, span, err)
		}
		from, to := confirmed[i], confirmed[i+1]
		hint := transportHint(from.kind, to.kind)
		entry, err := s.routes.Build(ctx, from.location, to.location, hint)
		if err != nil {
			if ctx.Err() != nil {
				return s.cancelled(l, span, ctx.Err())
			}
			l.Debug("Route dropped",
				zap.String("transport", string(hint)),
				zap.Error(err),
			)
			continue
		}
		routes = append(routes, *entry)
	}

	state = stateReady
	l.Debug("Pass state", zap.String("state", string(state)),
		zap.Int("locations", len(stops)),
		zap.Int("routes", len(routes)),
	)
	span.SetAttributes(
		attribute.Int("pass.locations", len(stops)),
		attribute.Int("pass.routes", len(routes)),
	)

	locations := make([]models.ResolvedLocation, 0, len(stops))
	for _, stop := range stops {
		locations = append(locations, stop.location)
	}
	return &models.TripMapData{Locations: locations, Routes: routes}, nil
}

// cancelled discards all accumulated work; the caller sees no partial result.
func (s *ServiceImpl) cancelled(l *zap.Logger, span trace.Span, err error) (*models.TripMapData, error) {
	l.Debug("Pass state", zap.String("state", string(stateCancelled)))
	span.SetStatus(codes.Error, "pass cancelled")
	return nil, err
}
