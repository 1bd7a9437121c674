package config

import (
	"os"
	"strconv"
	"time"
)

// ServicesConfig points at the consumed third-party geo services.
type ServicesConfig struct {
	GeocodeURL string
	RoutingURL string
	RailURL    string
	UserAgent  string
}

// PipelineConfig tunes the rate-limited fetch pipeline.
type PipelineConfig struct {
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxRetries    int
}

// CacheConfig tunes the durable cache store.
type CacheConfig struct {
	Path        string
	LocationTTL time.Duration
	RouteTTL    time.Duration
	MaxEntries  int
}

type Config struct {
	Services    ServicesConfig
	Pipeline    PipelineConfig
	Cache       CacheConfig
	ServerPort  string
	MetricsAddr string
	PprofAddr   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Services: ServicesConfig{
			GeocodeURL: getEnvOrDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
			RoutingURL: getEnvOrDefault("ROUTING_URL", "https://router.project-osrm.org"),
			RailURL:    getEnvOrDefault("RAIL_URL", "https://overpass-api.de/api/interpreter"),
			UserAgent:  getEnvOrDefault("GEO_USER_AGENT", "tripfolio/1.0"),
		},
		Pipeline: PipelineConfig{
			BaseDelay:     time.Duration(getEnvIntOrDefault("PIPELINE_BASE_DELAY_MS", 2000)) * time.Millisecond,
			BackoffFactor: 1.5,
			MaxRetries:    getEnvIntOrDefault("PIPELINE_MAX_RETRIES", 3),
		},
		Cache: CacheConfig{
			Path:        getEnvOrDefault("GEO_CACHE_FILE", "data/geocache.json"),
			LocationTTL: time.Duration(getEnvIntOrDefault("LOCATION_CACHE_TTL_HOURS", 24)) * time.Hour,
			RouteTTL:    time.Duration(getEnvIntOrDefault("ROUTE_CACHE_TTL_HOURS", 7*24)) * time.Hour,
			MaxEntries:  getEnvIntOrDefault("GEO_CACHE_MAX_ENTRIES", 500),
		},
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8094"),
		MetricsAddr: getEnvOrDefault("METRICS_ADDR", ":9094"),
		PprofAddr:   getEnvOrDefault("PPROF_ADDR", ":6060"),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
