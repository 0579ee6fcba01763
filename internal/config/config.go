// Package config loads service configuration from the environment.
//
// A .env file in the working directory is applied first when present.
// Every knob except the auth token is optional: malformed values are
// logged and replaced with the default rather than failing startup.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HTTP configures the listener.
type HTTP struct {
	Addr string
}

// Log configures the root logger.
type Log struct {
	Level slog.Level
}

// Auth configures bearer-token authentication.
type Auth struct {
	Enabled bool
	Token   string
}

// TLE configures element-set sourcing.
type TLE struct {
	FetchEnabled    bool
	SourceURL       string
	ExtraURLs       []string
	CacheDir        string
	MaxFiles        int
	MaxAge          time.Duration
	RefreshInterval time.Duration
}

// Pool configures the worker pool. Workers zero selects
// clamp(NumCPU, 2, 8).
type Pool struct {
	Workers int
}

// Eclipse configures shadow evaluation.
type Eclipse struct {
	ShadowCacheSize int
	ShadowBucket    time.Duration
	Precision       time.Duration
}

// RateLimit configures the per-client request limiter.
type RateLimit struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// EOP configures Earth-orientation corrections. An empty File runs the
// GMST-only transform chain.
type EOP struct {
	File   string
	Strict bool
}

// Config is the full service configuration.
type Config struct {
	HTTP      HTTP
	Log       Log
	Auth      Auth
	TLE       TLE
	Pool      Pool
	Eclipse   Eclipse
	RateLimit RateLimit
	EOP       EOP
}

// Load reads configuration from a .env file (when present) and the
// PASSCAST_* environment. The only fatal condition is auth enabled
// without a token.
func Load(logger *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment from .env")
	}

	cfg := Config{
		HTTP: HTTP{Addr: envString("PASSCAST_HTTP_ADDR", ":8080")},
		Log:  Log{Level: parseLevel(logger, os.Getenv("PASSCAST_LOG_LEVEL"))},
		TLE: TLE{
			FetchEnabled: envBool(logger, "PASSCAST_TLE_FETCH_ENABLED", true),
			SourceURL:    envString("PASSCAST_TLE_SOURCE_URL", "https://celestrak.org/NORAD/elements/gp.php?GROUP=visual&FORMAT=tle"),
			ExtraURLs: envList("PASSCAST_TLE_EXTRA_URLS", []string{
				// ISS (NORAD 25544): well-documented reference satellite.
				"https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle",
			}),
			CacheDir:        envString("PASSCAST_TLE_CACHE_DIR", "/tmp/passcast/tle"),
			MaxFiles:        envInt(logger, "PASSCAST_TLE_MAX_FILES", 5),
			MaxAge:          envSeconds(logger, "PASSCAST_TLE_MAX_AGE", 24*time.Hour),
			RefreshInterval: envSeconds(logger, "PASSCAST_TLE_REFRESH_INTERVAL", 6*time.Hour),
		},
		Pool: Pool{Workers: envInt(logger, "PASSCAST_POOL_WORKERS", 0)},
		Eclipse: Eclipse{
			ShadowCacheSize: envInt(logger, "PASSCAST_SHADOW_CACHE_SIZE", 10000),
			ShadowBucket:    envSeconds(logger, "PASSCAST_SHADOW_BUCKET", 30*time.Second),
			Precision:       envSeconds(logger, "PASSCAST_ECLIPSE_PRECISION", 5*time.Second),
		},
		RateLimit: RateLimit{
			Enabled: envBool(logger, "PASSCAST_RATE_LIMIT_ENABLED", true),
			RPS:     envFloat(logger, "PASSCAST_RATE_LIMIT_RPS", 10),
			Burst:   envInt(logger, "PASSCAST_RATE_LIMIT_BURST", 20),
		},
		EOP: EOP{
			File:   os.Getenv("PASSCAST_EOP_FILE"),
			Strict: envBool(logger, "PASSCAST_EOP_STRICT", false),
		},
	}

	auth, err := loadAuth(logger)
	if err != nil {
		return Config{}, err
	}
	cfg.Auth = auth

	logger.Info("configuration loaded",
		"http_addr", cfg.HTTP.Addr,
		"log_level", cfg.Log.Level.String(),
		"tle_fetch_enabled", cfg.TLE.FetchEnabled,
		"pool_workers", cfg.Pool.Workers,
		"shadow_cache_size", cfg.Eclipse.ShadowCacheSize,
		"rate_limit_enabled", cfg.RateLimit.Enabled,
		"eop_file", cfg.EOP.File,
	)
	return cfg, nil
}

func loadAuth(logger *slog.Logger) (Auth, error) {
	cfg := Auth{}

	if v := os.Getenv("PASSCAST_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("PASSCAST_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("PASSCAST_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("PASSCAST_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func parseLevel(logger *slog.Logger, v string) slog.Level {
	switch strings.ToLower(v) {
	case "", "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	logger.Warn("invalid PASSCAST_LOG_LEVEL value, using info", "value", v)
	return slog.LevelInfo
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envBool(logger *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("invalid integer value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(logger *slog.Logger, key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		logger.Warn("invalid numeric value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

// envSeconds reads a whole-second duration.
func envSeconds(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("invalid seconds value, using default", "key", key, "value", v, "default", def.Seconds())
		return def
	}
	return time.Duration(n) * time.Second
}
