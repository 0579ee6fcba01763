package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/eclipse"
	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
	"github.com/anttikuosmanen-rgb/passcast/internal/passes"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// Executor runs the request vocabulary. Each pool worker owns one, so
// propagator and shadow caches never cross a goroutine boundary there.
// The API layer also keeps a single mutex-guarded instance for the
// synchronous fallback path; Executor itself is not safe for concurrent
// use.
type Executor struct {
	log     *slog.Logger
	cfg     Config
	eclipse *eclipse.Finder
	passes  *passes.Finder
	props   map[int]cachedProp
}

// cachedProp holds an initialized propagator plus the element lines it
// was built from, so refreshed elements rebuild it.
type cachedProp struct {
	prop  *propagation.Propagator
	line1 string
	line2 string
}

// NewExecutor creates an Executor with empty caches.
func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	ec := eclipse.NewFinder(cfg.ShadowCacheSize, cfg.ShadowBucket, cfg.EclipsePrecision)
	return &Executor{
		log:     logger,
		cfg:     cfg,
		eclipse: ec,
		passes:  passes.NewFinder(ec, logger),
		props:   make(map[int]cachedProp),
	}
}

// Execute runs one request to completion and returns its payload.
func (e *Executor) Execute(req Request) (any, error) {
	switch r := req.(type) {
	case PropagatePositions:
		return e.positions(r)
	case PropagateGeodetic:
		return e.geodetic(r)
	case ComputePassesElevation:
		r.Query.Mode = passes.ModeElevation
		return e.findPasses(r.Elements, r.Query)
	case ComputePassesSwath:
		r.Query.Mode = passes.ModeSwath
		return e.findPasses(r.Elements, r.Query)
	case ClearCache:
		e.clearCaches()
		return nil, nil
	}
	// Unreachable while the Request set stays closed.
	return nil, fmt.Errorf("unsupported request type %T", req)
}

// propagator returns the cached propagator for the element set, building
// or rebuilding it when the lines changed.
func (e *Executor) propagator(elements tle.Elements) (*propagation.Propagator, error) {
	if c, ok := e.props[elements.CatalogID]; ok &&
		c.line1 == elements.Line1 && c.line2 == elements.Line2 {
		return c.prop, nil
	}
	p, err := propagation.New(elements, e.cfg.Frames)
	if err != nil {
		return nil, err
	}
	p.StrictEOP = e.cfg.StrictEOP
	e.props[elements.CatalogID] = cachedProp{prop: p, line1: elements.Line1, line2: elements.Line2}
	return p, nil
}

func (e *Executor) positions(r PropagatePositions) ([]PositionSample, error) {
	p, err := e.propagator(r.Elements)
	if err != nil {
		return nil, err
	}
	out := make([]PositionSample, 0, len(r.Times))
	for _, at := range r.Times {
		st, err := p.StateAt(at)
		if err != nil {
			e.notePropagationFailure(err)
			continue
		}
		out = append(out, PositionSample{
			Time: st.Time,
			XKm:  st.ECEF.X, YKm: st.ECEF.Y, ZKm: st.ECEF.Z,
			VxKm: st.ECEF.VX, VyKm: st.ECEF.VY, VzKm: st.ECEF.VZ,
		})
	}
	return out, nil
}

func (e *Executor) geodetic(r PropagateGeodetic) ([]GeodeticSample, error) {
	p, err := e.propagator(r.Elements)
	if err != nil {
		return nil, err
	}
	out := make([]GeodeticSample, 0, len(r.Times))
	for _, at := range r.Times {
		st, err := p.StateAt(at)
		if err != nil {
			e.notePropagationFailure(err)
			continue
		}
		out = append(out, GeodeticSample{
			Time:     st.Time,
			LatDeg:   st.Geodetic.LatDeg,
			LonDeg:   st.Geodetic.LonDeg,
			HeightKm: st.Geodetic.HeightKm,
		})
	}
	return out, nil
}

func (e *Executor) findPasses(elements tle.Elements, q passes.Query) ([]passes.Pass, error) {
	p, err := e.propagator(elements)
	if err != nil {
		return nil, err
	}
	return e.passes.Find(p, q)
}

func (e *Executor) clearCaches() {
	e.props = make(map[int]cachedProp)
	e.eclipse.ClearCache()
}

// notePropagationFailure records a skipped sample by failure kind.
func (e *Executor) notePropagationFailure(err error) {
	switch {
	case errors.Is(err, propagation.ErrDecayed):
		metrics.IncPropagationFailure("decayed")
	case errors.Is(err, propagation.ErrFrameUnavailable):
		metrics.IncPropagationFailure("frame")
	default:
		metrics.IncPropagationFailure("no_position")
	}
	e.log.Debug("propagation sample skipped", "error", err)
}

// Config carries pool sizing and executor dependencies.
type Config struct {
	// Workers is the pool size. Zero selects clamp(NumCPU, 2, 8).
	Workers int

	ShadowCacheSize  int
	ShadowBucket     time.Duration
	EclipsePrecision time.Duration

	// Frames may be nil for the GMST-only transform chain. Frames are
	// read-only after construction and safe to share across workers.
	Frames    *transform.Frames
	StrictEOP bool
}
