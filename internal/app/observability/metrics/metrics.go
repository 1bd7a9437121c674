package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the engine's metric instruments.
type AppMetrics struct {
	GeocodeRequestsTotal  metric.Int64Counter
	RouteRequestsTotal    metric.Int64Counter
	UpstreamCallsTotal    metric.Int64Counter
	UpstreamRetriesTotal  metric.Int64Counter
	UpstreamThrottleTotal metric.Int64Counter
	CacheHitsTotal        metric.Int64Counter
	CacheMissesTotal      metric.Int64Counter
	PassesTotal           metric.Int64Counter
	PassDurationSeconds   metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tripfolio-engine")
		m := &AppMetrics{}
		var err error

		m.GeocodeRequestsTotal, err = meter.Int64Counter(
			"geocode_requests_total",
			metric.WithDescription("Total geocoding lookups requested"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create geocode_requests_total: %v", err)
		}

		m.RouteRequestsTotal, err = meter.Int64Counter(
			"route_requests_total",
			metric.WithDescription("Total route builds requested"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create route_requests_total: %v", err)
		}

		m.UpstreamCallsTotal, err = meter.Int64Counter(
			"upstream_calls_total",
			metric.WithDescription("Outbound calls issued by the fetch pipeline"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create upstream_calls_total: %v", err)
		}

		m.UpstreamRetriesTotal, err = meter.Int64Counter(
			"upstream_retries_total",
			metric.WithDescription("Retries performed by the fetch pipeline"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create upstream_retries_total: %v", err)
		}

		m.UpstreamThrottleTotal, err = meter.Int64Counter(
			"upstream_throttled_total",
			metric.WithDescription("Rate-limit responses received from upstream services"),
			metric.WithUnit("{response}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create upstream_throttled_total: %v", err)
		}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"geo_cache_hits_total",
			metric.WithDescription("Location/route cache hits"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create geo_cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"geo_cache_misses_total",
			metric.WithDescription("Location/route cache misses"),
			metric.WithUnit("{miss}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create geo_cache_misses_total: %v", err)
		}

		m.PassesTotal, err = meter.Int64Counter(
			"resolution_passes_total",
			metric.WithDescription("Resolution passes started"),
			metric.WithUnit("{pass}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create resolution_passes_total: %v", err)
		}

		m.PassDurationSeconds, err = meter.Float64Histogram(
			"resolution_pass_duration_seconds",
			metric.WithDescription("Wall time of a full resolution pass"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create resolution_pass_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance, initializing it against the
// current MeterProvider on first use. With the default no-op provider every
// instrument is a no-op, which keeps tests quiet.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
