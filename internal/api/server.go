// Package api exposes the HTTP surface: satellite listing, pass and
// swath searches, position series, brightness estimates, and the
// mutating element-fetch and cache-clear operations. Computations run
// on the scheduler pool; a single fallback executor keeps the API
// answering while the pool is shut down.
package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/auth"
	"github.com/anttikuosmanen-rgb/passcast/internal/config"
	"github.com/anttikuosmanen-rgb/passcast/internal/health"
	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
	"github.com/anttikuosmanen-rgb/passcast/internal/scheduler"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// Config carries the server's own settings plus the slices of the
// application config its handlers need.
type Config struct {
	Addr      string
	Auth      auth.Config
	RateLimit config.RateLimit
	TLE       config.TLE
	Frames    *transform.Frames
	StrictEOP bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	tleCfg    config.TLE
	frames    *transform.Frames
	strictEOP bool

	store     *tle.Store
	fetcher   *tle.Fetcher
	diskCache *tle.DiskCache

	pool       *scheduler.Pool
	fallback   *scheduler.Executor
	fallbackMu sync.Mutex
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, logger *slog.Logger, store *tle.Store, fetcher *tle.Fetcher, diskCache *tle.DiskCache, pool *scheduler.Pool, fallback *scheduler.Executor) *Server {
	s := &Server{
		logger:    logger,
		tleCfg:    cfg.TLE,
		frames:    cfg.Frames,
		strictEOP: cfg.StrictEOP,
		store:     store,
		fetcher:   fetcher,
		diskCache: diskCache,
		pool:      pool,
		fallback:  fallback,
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return store.Get() != nil }))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/satellites", s.handleSatellites)
	mux.HandleFunc("GET /api/v1/satellites/{catalog_id}/passes", s.handlePasses)
	mux.HandleFunc("GET /api/v1/satellites/{catalog_id}/swath-passes", s.handleSwathPasses)
	mux.HandleFunc("GET /api/v1/satellites/{catalog_id}/positions", s.handlePositions)
	mux.HandleFunc("GET /api/v1/satellites/{catalog_id}/track", s.handleTrack)
	mux.HandleFunc("GET /api/v1/satellites/{catalog_id}/brightness", s.handleBrightness)
	mux.HandleFunc("GET /api/v1/tle/metadata", s.handleTLEMetadata)
	mux.HandleFunc("POST /api/v1/tle/fetch", s.handleTLEFetch)
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleCacheClear)

	var limiter *ipLimiter
	if cfg.RateLimit.Enabled {
		limiter = newIPLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	// Build middleware chain: metrics -> request id -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = rateLimitMiddleware(limiter)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
