package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/api"
	"github.com/anttikuosmanen-rgb/passcast/internal/auth"
	"github.com/anttikuosmanen-rgb/passcast/internal/config"
	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
	"github.com/anttikuosmanen-rgb/passcast/internal/scheduler"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))

	frames := loadFrames(cfg.EOP, logger)

	store := tle.NewStore()
	diskCache := tle.NewDiskCache(cfg.TLE.CacheDir, cfg.TLE.MaxFiles)
	fetcher := tle.NewFetcher(cfg.TLE.SourceURL, logger, cfg.TLE.ExtraURLs...)

	// Attempt to load cached element data on startup.
	data, ts, err := diskCache.LoadLatest()
	if err != nil {
		logger.Info("no element cache found, starting cold", "error", err)
	} else {
		entries, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached element data", "error", err)
		} else if len(entries) > 0 {
			store.Set(tle.NewDataset("cache", ts, entries))
			metrics.SetTLEEntries(len(entries))
			logger.Info("loaded element data from cache",
				"count", len(entries), "cached_at", ts.Format(time.RFC3339))
		}
	}

	schedCfg := scheduler.Config{
		Workers:          cfg.Pool.Workers,
		ShadowCacheSize:  cfg.Eclipse.ShadowCacheSize,
		ShadowBucket:     cfg.Eclipse.ShadowBucket,
		EclipsePrecision: cfg.Eclipse.Precision,
		Frames:           frames,
		StrictEOP:        cfg.EOP.Strict,
	}
	pool := scheduler.NewPool(schedCfg, logger)
	fallback := scheduler.NewExecutor(schedCfg, logger)

	srv := api.NewServer(api.Config{
		Addr:      cfg.HTTP.Addr,
		Auth:      auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		RateLimit: cfg.RateLimit,
		TLE:       cfg.TLE,
		Frames:    frames,
		StrictEOP: cfg.EOP.Strict,
	}, logger, store, fetcher, diskCache, pool, fallback)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TLE.FetchEnabled {
		go refreshLoop(ctx, cfg.TLE, fetcher, store, diskCache, logger)
	}

	// Background goroutine to update the element age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetTLEAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"tle_fetch_enabled", cfg.TLE.FetchEnabled,
			"workers", pool.Workers(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	pool.Close()

	logger.Info("server stopped")
}

// loadFrames builds the frame transform chain from the configured EOP
// table. A missing file is fatal in strict mode and a warning otherwise,
// since the GMST-only chain still serves lenient callers.
func loadFrames(cfg config.EOP, logger *slog.Logger) *transform.Frames {
	if cfg.File == "" {
		if cfg.Strict {
			logger.Warn("strict EOP mode has no table configured, all propagation will be rejected")
		}
		return nil
	}
	table, err := transform.LoadEOPFile(cfg.File)
	if err != nil {
		if cfg.Strict {
			logger.Error("failed to load EOP table", "file", cfg.File, "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to load EOP table, using GMST-only transforms",
			"file", cfg.File, "error", err)
		return nil
	}
	return transform.NewFrames(table, logger)
}

// refreshLoop keeps the element dataset current. It refreshes at startup
// when the store is empty or the cached data is older than the configured
// maximum, then on every interval tick. Failures keep the previous
// dataset in place.
func refreshLoop(ctx context.Context, cfg config.TLE, fetcher *tle.Fetcher, store *tle.Store, diskCache *tle.DiskCache, logger *slog.Logger) {
	refresh := func() {
		ds, err := tle.Refresh(ctx, fetcher, store, diskCache, logger)
		if err != nil {
			logger.Warn("element refresh failed", "error", err)
			return
		}
		metrics.SetTLEEntries(ds.Len())
	}

	if store.Get() == nil || store.AgeSeconds() > cfg.MaxAge.Seconds() {
		refresh()
	}

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}
