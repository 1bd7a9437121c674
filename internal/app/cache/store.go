package cache

import (
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/models"
)

const (
	// DefaultLocationTTL bounds how long a geocoding result stays valid.
	DefaultLocationTTL = 24 * time.Hour
	// DefaultRouteTTL bounds how long a computed route stays valid.
	DefaultRouteTTL = 7 * 24 * time.Hour
	// DefaultMaxEntries caps each cache map; oldest entries are evicted at
	// persist time once the cap is exceeded.
	DefaultMaxEntries = 500

	cleanupInterval = 10 * time.Minute
)

// Options tunes the cache store. Zero values fall back to the defaults.
type Options struct {
	LocationTTL time.Duration
	RouteTTL    time.Duration
	MaxEntries  int
}

// Store holds the two process-wide cache maps (locations and routes) backed
// by durable local storage. It is constructed once and passed by reference
// into the resolver and route builder. An expired entry is treated as a miss
// even while still physically present; physical removal happens lazily at
// persist time.
type Store struct {
	locations   *gocache.Cache
	routes      *gocache.Cache
	locationTTL time.Duration
	routeTTL    time.Duration
	maxEntries  int
	storage     Storage
	logger      *zap.Logger
}

// NewStore creates the cache store. Call Load once at startup before use.
func NewStore(storage Storage, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LocationTTL <= 0 {
		opts.LocationTTL = DefaultLocationTTL
	}
	if opts.RouteTTL <= 0 {
		opts.RouteTTL = DefaultRouteTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Store{
		locations:   gocache.New(opts.LocationTTL, cleanupInterval),
		routes:      gocache.New(opts.RouteTTL, cleanupInterval),
		locationTTL: opts.LocationTTL,
		routeTTL:    opts.RouteTTL,
		maxEntries:  opts.MaxEntries,
		storage:     storage,
		logger:      logger,
	}
}

// Load hydrates both maps from durable storage. Entries past their TTL are
// skipped; surviving entries keep only their remaining lifetime. A storage
// read failure is catastrophic and must be surfaced to the user.
func (s *Store) Load() error {
	snap, err := s.storage.Read()
	if err != nil {
		return err
	}

	now := time.Now()
	for key, entry := range snap.Locations {
		if remaining := s.locationTTL - now.Sub(entry.Timestamp); remaining > 0 {
			s.locations.Set(key, entry, remaining)
		}
	}
	for key, entry := range snap.Routes {
		if remaining := s.routeTTL - now.Sub(entry.Timestamp); remaining > 0 {
			s.routes.Set(key, entry, remaining)
		}
	}

	s.logger.Info("Cache store loaded",
		zap.Int("locations", s.locations.ItemCount()),
		zap.Int("routes", s.routes.ItemCount()),
	)
	return nil
}

// GetLocation returns the cached geocoding entry for the normalized query
// key, or a miss if absent or expired.
func (s *Store) GetLocation(key string) (models.CachedLocationEntry, bool) {
	v, ok := s.locations.Get(key)
	if !ok {
		s.logger.Debug("Location cache miss", zap.String("key", key))
		return models.CachedLocationEntry{}, false
	}
	entry, ok := v.(models.CachedLocationEntry)
	return entry, ok
}

// SetLocation writes through a freshly resolved location and persists.
func (s *Store) SetLocation(key string, entry models.CachedLocationEntry) {
	s.locations.Set(key, entry, gocache.DefaultExpiration)
	s.Persist()
}

// GetRoute returns the cached route for the rounded endpoint-coordinate key,
// or a miss if absent or expired.
func (s *Store) GetRoute(key string) (models.CachedRouteEntry, bool) {
	v, ok := s.routes.Get(key)
	if !ok {
		s.logger.Debug("Route cache miss", zap.String("key", key))
		return models.CachedRouteEntry{}, false
	}
	entry, ok := v.(models.CachedRouteEntry)
	return entry, ok
}

// SetRoute writes through a freshly built route and persists.
func (s *Store) SetRoute(key string, entry models.CachedRouteEntry) {
	s.routes.Set(key, entry, gocache.DefaultExpiration)
	s.Persist()
}

// Persist snapshots both maps to durable storage. Expired entries are pruned
// on the way out and each map is trimmed to its capacity bound. Storage
// failures are logged and swallowed; a resolution pass never fails because
// the local cache could not be written.
func (s *Store) Persist() {
	snap := &Snapshot{
		Locations: s.locationSnapshot(),
		Routes:    s.routeSnapshot(),
	}
	if err := s.storage.Write(snap); err != nil {
		s.logger.Warn("Cache persist failed", zap.Error(err))
	}
}

func (s *Store) locationSnapshot() map[string]models.CachedLocationEntry {
	items := s.locations.Items()
	out := make(map[string]models.CachedLocationEntry, len(items))
	for key, item := range items {
		if entry, ok := item.Object.(models.CachedLocationEntry); ok {
			out[key] = entry
		}
	}
	for _, key := range overflowKeys(timestampsOf(out), s.maxEntries) {
		delete(out, key)
		s.locations.Delete(key)
	}
	return out
}

func (s *Store) routeSnapshot() map[string]models.CachedRouteEntry {
	items := s.routes.Items()
	out := make(map[string]models.CachedRouteEntry, len(items))
	for key, item := range items {
		if entry, ok := item.Object.(models.CachedRouteEntry); ok {
			out[key] = entry
		}
	}
	ts := make(map[string]time.Time, len(out))
	for key, entry := range out {
		ts[key] = entry.Timestamp
	}
	for _, key := range overflowKeys(ts, s.maxEntries) {
		delete(out, key)
		s.routes.Delete(key)
	}
	return out
}

func timestampsOf(entries map[string]models.CachedLocationEntry) map[string]time.Time {
	ts := make(map[string]time.Time, len(entries))
	for key, entry := range entries {
		ts[key] = entry.Timestamp
	}
	return ts
}

// overflowKeys returns the oldest keys beyond the capacity bound.
func overflowKeys(timestamps map[string]time.Time, limit int) []string {
	if len(timestamps) <= limit {
		return nil
	}
	keys := make([]string, 0, len(timestamps))
	for key := range timestamps {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return timestamps[keys[i]].Before(timestamps[keys[j]])
	})
	return keys[:len(keys)-limit]
}
