package server

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/cache"
	"github.com/tripfolio/tripfolio/internal/app/engine"
	"github.com/tripfolio/tripfolio/internal/app/geocode"
	"github.com/tripfolio/tripfolio/internal/app/pipeline"
	"github.com/tripfolio/tripfolio/internal/app/route"
	"github.com/tripfolio/tripfolio/internal/pkg/config"
)

// Server wires the cache store, fetch pipeline and engine behind the HTTP
// surface.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *cache.Store
	engine engine.Service
	router http.Handler
}

// New creates a Server and hydrates the cache store. A cache read failure
// here is the engine's only catastrophic error and aborts startup.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	storage := cache.NewFileStorage(cfg.Cache.Path)
	store := cache.NewStore(storage, cache.Options{
		LocationTTL: cfg.Cache.LocationTTL,
		RouteTTL:    cfg.Cache.RouteTTL,
		MaxEntries:  cfg.Cache.MaxEntries,
	}, logger)
	if err := store.Load(); err != nil {
		return nil, err
	}

	// One pipeline shared by the resolver and the route builder keeps the
	// whole process under a single outbound spacing policy.
	fetch := pipeline.New(resty.New(), pipeline.Config{
		BaseDelay:     cfg.Pipeline.BaseDelay,
		BackoffFactor: cfg.Pipeline.BackoffFactor,
		MaxRetries:    cfg.Pipeline.MaxRetries,
		UserAgent:     cfg.Services.UserAgent,
	}, logger)

	resolver := geocode.NewServiceImpl(store, fetch, cfg.Services.GeocodeURL, logger)
	builder := route.NewServiceImpl(store, fetch, cfg.Services.RoutingURL, cfg.Services.RailURL, logger)

	return &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		engine: engine.NewServiceImpl(resolver, builder, logger),
	}, nil
}

// HTTPServer creates and configures the HTTP server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        ":" + s.cfg.ServerPort,
		Handler:     s.router,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// Resolution passes block on rate-limited upstream calls, so writes
		// get a generous bound.
		WriteTimeout: 5 * time.Minute,
	}
}

// SetRouter sets the HTTP router/handler.
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Engine exposes the resolution engine for the router.
func (s *Server) Engine() engine.Service {
	return s.engine
}

// Close flushes the cache store to durable storage.
func (s *Server) Close() {
	s.store.Persist()
}
