// Package propagation wraps the SGP4 model for a single satellite and
// gates its raw output behind plausibility checks, so downstream search
// loops see either a usable state or a typed error, never garbage
// coordinates.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// Failure kinds, distinguished with errors.Is. Callers in search loops
// treat any of them as "no position here": log, step past, continue.
var (
	// ErrNoPosition marks a model failure or physically implausible output.
	ErrNoPosition = errors.New("no position available")
	// ErrDecayed marks output below any survivable altitude.
	ErrDecayed = errors.New("satellite decayed")
	// ErrFrameUnavailable marks a requested instant outside Earth-orientation
	// coverage when strict frame mode is on.
	ErrFrameUnavailable = errors.New("earth orientation data unavailable")
)

// Plausibility bounds on geodetic height.
const (
	minHeightKm      = -100.0
	leoCeilingKm     = 5000.0
	absCeilingKm     = 100000.0
	leoMinMeanMotion = 10.0 // rev/day; faster than this is unambiguously LEO
)

// State bundles one propagation sample in every frame consumers need.
// Producing all three costs two rotations and a geodetic iteration on top
// of the SGP4 call itself, which dominates.
type State struct {
	Time     time.Time
	TEME     transform.StateTEME
	ECEF     transform.StateECEF
	Geodetic transform.Geodetic
}

// Propagator computes positions for a single satellite. Construction
// initializes the SGP4 model once; StateAt is then cheap enough for
// second-resolution scans. Not safe for concurrent use without external
// locking; the worker pool gives each worker its own instance.
type Propagator struct {
	elements tle.Elements
	sat      satellite.Satellite
	frames   *transform.Frames

	// StrictEOP makes StateAt fail with ErrFrameUnavailable outside
	// Earth-orientation coverage instead of degrading to the GMST-only
	// rotation. Off by default.
	StrictEOP bool
}

// New creates a Propagator from an element set. frames may be nil, which
// selects the GMST-only transform chain.
func New(e tle.Elements, frames *transform.Frames) (*Propagator, error) {
	sat, err := initSGP4(e.Line1, e.Line2)
	if err != nil {
		return nil, fmt.Errorf("catalog %d: %w", e.CatalogID, err)
	}
	return &Propagator{elements: e, sat: sat, frames: frames}, nil
}

// Elements returns the element set the propagator was built from.
func (p *Propagator) Elements() tle.Elements { return p.elements }

// OrbitalPeriod returns the period implied by the mean motion.
func (p *Propagator) OrbitalPeriod() time.Duration { return p.elements.OrbitalPeriod() }

// StateAt propagates to t and returns the state in TEME, ECEF, and
// geodetic form, or a typed error when the model output is unusable.
func (p *Propagator) StateAt(t time.Time) (State, error) {
	if p.StrictEOP && !p.frames.Covers(t) {
		return State{}, fmt.Errorf("catalog %d at %s: %w",
			p.elements.CatalogID, t.UTC().Format(time.RFC3339), ErrFrameUnavailable)
	}

	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())

	teme := transform.StateTEME{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		VX: vel.X, VY: vel.Y, VZ: vel.Z,
	}
	if !finite(teme) {
		return State{}, fmt.Errorf("catalog %d at %s: NaN/Inf output: %w",
			p.elements.CatalogID, t.Format(time.RFC3339), ErrNoPosition)
	}

	ecef := p.frames.TEMEToECEF(teme, t)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	if err := classify(p.elements.MeanMotion, geo.HeightKm); err != nil {
		return State{}, fmt.Errorf("catalog %d at %s: height %.1f km: %w",
			p.elements.CatalogID, t.Format(time.RFC3339), geo.HeightKm, err)
	}

	return State{Time: t, TEME: teme, ECEF: ecef, Geodetic: geo}, nil
}

// classify applies the plausibility gate to a propagated geodetic height.
func classify(meanMotion, heightKm float64) error {
	switch {
	case heightKm < minHeightKm:
		return ErrDecayed
	case meanMotion > leoMinMeanMotion && heightKm > leoCeilingKm:
		return ErrNoPosition
	case heightKm > absCeilingKm:
		return ErrNoPosition
	}
	return nil
}

func finite(s transform.StateTEME) bool {
	for _, v := range [...]float64{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
