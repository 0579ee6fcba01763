// Package metrics defines the Prometheus instrumentation surface.
//
// All collectors are registered on the default registry at init time and
// exposed through Handler. Other packages record through the helper
// functions rather than touching collectors directly, so the metric names
// and label sets stay in one place.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passcast_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "passcast_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tasksSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passcast_tasks_submitted_total",
			Help: "Tasks submitted to the worker pool, by request type.",
		},
		[]string{"type"},
	)

	tasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passcast_tasks_completed_total",
			Help: "Tasks resolved by the worker pool, by request type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	taskQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "passcast_task_queue_depth",
			Help: "Tasks waiting for a free worker.",
		},
	)

	workersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "passcast_workers_busy",
			Help: "Workers currently executing a task.",
		},
	)

	workerFaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passcast_worker_faults_total",
			Help: "Worker panics recovered and replaced.",
		},
	)

	shadowCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passcast_shadow_cache_hits_total",
			Help: "Shadow cache lookups answered from cache.",
		},
	)

	shadowCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passcast_shadow_cache_misses_total",
			Help: "Shadow cache lookups that required evaluation.",
		},
	)

	shadowCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passcast_shadow_cache_evictions_total",
			Help: "Shadow cache entries evicted to stay within the size bound.",
		},
	)

	propagationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passcast_propagation_failures_total",
			Help: "Propagation samples rejected, by reason.",
		},
		[]string{"reason"},
	)

	tleAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "passcast_tle_age_seconds",
			Help: "Age of the current element set since fetch.",
		},
	)

	tleEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "passcast_tle_entries",
			Help: "Satellites in the current element set.",
		},
	)

	syncFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passcast_sync_fallbacks_total",
			Help: "Requests executed synchronously because the pool was unavailable.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		tasksSubmittedTotal,
		tasksCompletedTotal,
		taskQueueDepth,
		workersBusy,
		workerFaultsTotal,
		shadowCacheHitsTotal,
		shadowCacheMissesTotal,
		shadowCacheEvictionsTotal,
		propagationFailuresTotal,
		tleAgeSeconds,
		tleEntries,
		syncFallbacksTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncTaskSubmitted records a task entering the pool.
func IncTaskSubmitted(taskType string) {
	tasksSubmittedTotal.WithLabelValues(taskType).Inc()
}

// IncTaskCompleted records a task resolving with the given outcome
// ("ok", "error", "fault", or "rejected").
func IncTaskCompleted(taskType, outcome string) {
	tasksCompletedTotal.WithLabelValues(taskType, outcome).Inc()
}

// SetQueueDepth publishes the number of queued tasks.
func SetQueueDepth(n int) {
	taskQueueDepth.Set(float64(n))
}

// SetWorkersBusy publishes the number of busy workers.
func SetWorkersBusy(n int) {
	workersBusy.Set(float64(n))
}

// IncWorkerFaults records a recovered worker panic.
func IncWorkerFaults() {
	workerFaultsTotal.Inc()
}

// IncShadowCacheHits records a shadow cache hit.
func IncShadowCacheHits() {
	shadowCacheHitsTotal.Inc()
}

// IncShadowCacheMisses records a shadow cache miss.
func IncShadowCacheMisses() {
	shadowCacheMissesTotal.Inc()
}

// IncShadowCacheEvictions records a shadow cache eviction.
func IncShadowCacheEvictions() {
	shadowCacheEvictionsTotal.Inc()
}

// IncPropagationFailure records a rejected propagation sample
// ("decayed", "no_position", or "frame").
func IncPropagationFailure(reason string) {
	propagationFailuresTotal.WithLabelValues(reason).Inc()
}

// SetTLEAge publishes the element set age in seconds.
func SetTLEAge(seconds float64) {
	tleAgeSeconds.Set(seconds)
}

// SetTLEEntries publishes the element set size.
func SetTLEEntries(n int) {
	tleEntries.Set(float64(n))
}

// IncSyncFallbacks records a request served without the pool.
func IncSyncFallbacks() {
	syncFallbacksTotal.Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

// knownRoutes are recorded with their own label. Everything else is either a
// parameterized satellite route or noise from scanners, which collapses to
// "other" so bots cannot inflate label cardinality.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/satellites":   true,
	"/api/v1/tle/metadata": true,
	"/api/v1/tle/fetch":    true,
	"/api/v1/cache/clear":  true,
}

// satelliteOps are the per-satellite subresources under /api/v1/satellites/{catalog_id}/.
var satelliteOps = map[string]bool{
	"passes":       true,
	"swath-passes": true,
	"positions":    true,
	"track":        true,
	"brightness":   true,
}

// normalizeRoute maps a request path to a bounded set of metric labels.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}

	const prefix = "/api/v1/satellites/"
	if strings.HasPrefix(path, prefix) {
		rest := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[0] != "" && satelliteOps[parts[1]] {
			return prefix + "{catalog_id}/" + parts[1]
		}
	}

	return "other"
}
