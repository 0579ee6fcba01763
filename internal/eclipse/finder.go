// Package eclipse decides whether a satellite is inside the Earth's
// shadow and locates the instants where that changes.
//
// Point queries are cached: query times are quantized to a bucket and the
// cylinder test is evaluated once per satellite per bucket, so a scan
// revisiting nearby instants costs one SGP4 call instead of hundreds.
// Boundary refinement bypasses the cache and works at full time
// resolution, since bucket quantization would cap its precision.
package eclipse

import (
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
)

// Defaults for Finder construction.
const (
	DefaultCacheSize = 10000
	DefaultBucket    = 30 * time.Second
	DefaultPrecision = 5 * time.Second
)

// Finder answers shadow queries for satellites through a per-instance
// bucketed cache.
type Finder struct {
	cache     *ShadowCache
	bucket    time.Duration
	precision time.Duration
}

// NewFinder creates a Finder. Non-positive arguments select the defaults.
func NewFinder(cacheSize int, bucket, precision time.Duration) *Finder {
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Finder{
		cache:     NewShadowCache(cacheSize),
		bucket:    bucket,
		precision: precision,
	}
}

// InShadow reports whether the satellite is eclipsed at t. The query is
// quantized to the enclosing bucket: every instant within one bucket
// shares a single evaluation, with both the satellite and the sun placed
// at the bucket start.
func (f *Finder) InShadow(p *propagation.Propagator, t time.Time) (bool, error) {
	bucketStart := t.UTC().Truncate(f.bucket)
	key := shadowKey{catalogID: p.Elements().CatalogID, bucket: bucketStart.Unix()}

	if v, ok := f.cache.lookup(key); ok {
		return v, nil
	}

	st, err := p.StateAt(bucketStart)
	if err != nil {
		return false, err
	}
	sun := geometry.SunECI(bucketStart)
	in := geometry.InShadow(geometry.Vec3{X: st.TEME.X, Y: st.TEME.Y, Z: st.TEME.Z}, sun)

	f.cache.store(key, in)
	return in, nil
}

// BoundaryEvaluator adapts a propagator into an Evaluator for refining
// shadow boundaries inside [start, end]. The sun direction is frozen at
// the interval midpoint; it moves well under a tenth of a degree over any
// single pass, far below the cylinder test's sensitivity.
func (f *Finder) BoundaryEvaluator(p *propagation.Propagator, start, end time.Time) Evaluator {
	sun := geometry.SunECI(start.Add(end.Sub(start) / 2))
	return EvaluatorFunc(func(at time.Time) (bool, error) {
		st, err := p.StateAt(at)
		if err != nil {
			return false, err
		}
		return geometry.InShadow(geometry.Vec3{X: st.TEME.X, Y: st.TEME.Y, Z: st.TEME.Z}, sun), nil
	})
}

// ClearCache drops all cached evaluations.
func (f *Finder) ClearCache() {
	f.cache.Clear()
}

// CacheStats returns a snapshot of the cache counters.
func (f *Finder) CacheStats() CacheStats {
	return f.cache.Stats()
}
