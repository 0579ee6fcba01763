// Package passes scans time windows for satellite visibility intervals.
//
// The scan is a two-state machine: while searching it takes adaptive
// steps sized by how far the predicate is from its threshold, and while
// inside a pass it takes fine fixed steps to place the boundaries and
// apex accurately. After each pass the clock jumps half an orbital
// period, assuming one visibility window per revolution; near-polar
// stations can see two windows per revolution and may lose the second.
package passes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/eclipse"
	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
)

const (
	fineStepElevation = 2 * time.Second // in-pass step, elevation mode
	fineStepSwath     = 5 * time.Second // in-pass step, swath mode
	gapStep           = time.Minute     // advance on propagation failure
	epochLead         = time.Hour       // how far before epoch scanning may begin
)

// Finder runs pass searches. Shadow work is delegated to the eclipse
// finder, whose cache persists across searches.
type Finder struct {
	eclipse *eclipse.Finder
	log     *slog.Logger
}

// NewFinder creates a Finder.
func NewFinder(ec *eclipse.Finder, logger *slog.Logger) *Finder {
	return &Finder{eclipse: ec, log: logger}
}

// sample is one evaluated instant. Only the fields for the active mode
// are filled.
type sample struct {
	at         time.Time
	la         geometry.LookAngles
	distanceKm float64
}

// visible applies the mode predicate: elevation strictly above the
// minimum, or ground distance within the half swath.
func (s sample) visible(q Query) bool {
	if q.Mode == ModeSwath {
		return s.distanceKm <= q.SwathKm/2
	}
	return s.la.ElevationDeg > q.MinElevationDeg
}

// receding reports whether the target is moving away from the threshold
// relative to the previous search sample.
func (s sample) receding(q Query, prev float64) bool {
	if q.Mode == ModeSwath {
		return s.distanceKm > prev
	}
	return s.la.ElevationDeg < prev
}

// value is the raw predicate quantity used for trend tracking.
func (s sample) value(q Query) float64 {
	if q.Mode == ModeSwath {
		return s.distanceKm
	}
	return s.la.ElevationDeg
}

// Find scans [q.Start, q.End] and returns the visibility intervals,
// time-ordered, at most q.MaxPasses of them.
func (f *Finder) Find(p *propagation.Propagator, q Query) ([]Pass, error) {
	q = q.withDefaults()
	if err := q.validate(); err != nil {
		return nil, fmt.Errorf("pass query: %w", err)
	}

	// Geostationary-class objects are continuously visible or invisible
	// from a station; there are no discrete elevation passes to find.
	if q.Mode == ModeElevation && p.Elements().GeostationaryClass() {
		return []Pass{}, nil
	}

	halfOrbit := p.OrbitalPeriod() / 2
	fine := fineStepElevation
	if q.Mode == ModeSwath {
		fine = fineStepSwath
	}

	// Propagation far before the element epoch is unreliable.
	start := q.Start
	if earliest := p.Elements().Epoch.Add(-epochLead); start.Before(earliest) {
		f.log.Debug("search start clamped to element epoch",
			"catalog_id", p.Elements().CatalogID,
			"requested", q.Start, "effective", earliest)
		start = earliest
	}

	passes := []Pass{}
	var cur *passBuilder
	var prevVal float64
	havePrev := false

	t := start
	for !t.After(q.End) && len(passes) < q.MaxPasses {
		s, err := f.sampleAt(p, q, t)
		if err != nil {
			// Propagation gap: close any open pass at its last good
			// sample, then step past the gap and keep scanning.
			if cur != nil {
				if pass, ok := f.finalize(p, q, cur, cur.last); ok {
					passes = append(passes, pass)
				}
				cur = nil
			}
			t = t.Add(gapStep)
			havePrev = false
			continue
		}

		if cur == nil {
			if s.visible(q) {
				cur = newPassBuilder(s)
				havePrev = false
				t = t.Add(fine)
				continue
			}
			if havePrev && s.receding(q, prevVal) {
				// Moving away from the station below threshold; the
				// next chance is on the far side of the orbit.
				t = t.Add(halfOrbit)
				havePrev = false
				continue
			}
			prevVal = s.value(q)
			havePrev = true
			t = t.Add(searchStep(q, s))
			continue
		}

		if s.visible(q) {
			cur.update(q, s)
			t = t.Add(fine)
			continue
		}

		// Predicate went false: finalize and jump ahead.
		if pass, ok := f.finalize(p, q, cur, s); ok {
			passes = append(passes, pass)
		}
		cur = nil
		havePrev = false
		t = s.at.Add(halfOrbit)
	}

	// Window exhausted while still in a pass.
	if cur != nil && len(passes) < q.MaxPasses {
		if pass, ok := f.finalize(p, q, cur, cur.last); ok {
			passes = append(passes, pass)
		}
	}

	return passes, nil
}

// sampleAt propagates and evaluates the mode predicate inputs at t.
func (f *Finder) sampleAt(p *propagation.Propagator, q Query, t time.Time) (sample, error) {
	st, err := p.StateAt(t)
	if err != nil {
		return sample{}, err
	}
	s := sample{at: t}
	if q.Mode == ModeSwath {
		s.distanceKm = geometry.GroundDistanceKm(
			st.Geodetic.LatDeg, st.Geodetic.LonDeg,
			q.Observer.LatDeg, q.Observer.LonDeg)
		return s, nil
	}
	s.la = q.Observer.LookAt(geometry.Vec3{X: st.ECEF.X, Y: st.ECEF.Y, Z: st.ECEF.Z})
	return s, nil
}

// searchStep sizes the next step while searching: coarser the farther the
// sample is from the visibility threshold.
func searchStep(q Query, s sample) time.Duration {
	if q.Mode == ModeSwath {
		h := q.SwathKm / 2
		switch d := s.distanceKm; {
		case d > 4*h:
			return time.Minute
		case d > 3*h:
			return 30 * time.Second
		case d > 2*h:
			return 10 * time.Second
		case d > 1.2*h:
			return 5 * time.Second
		default:
			return 2 * time.Second
		}
	}
	switch el := s.la.ElevationDeg; {
	case el < -20:
		return 5 * time.Minute
	case el < -5:
		return time.Minute
	case el < -1:
		return 5 * time.Second
	default:
		return 2 * time.Second
	}
}

// passBuilder accumulates one pass while the predicate holds.
type passBuilder struct {
	first   sample
	last    sample
	maxEl   sample // elevation apex
	minDist sample // swath apex
}

func newPassBuilder(s sample) *passBuilder {
	return &passBuilder{first: s, last: s, maxEl: s, minDist: s}
}

func (b *passBuilder) update(q Query, s sample) {
	b.last = s
	if q.Mode == ModeSwath {
		if s.distanceKm < b.minDist.distanceKm {
			b.minDist = s
		}
		return
	}
	if s.la.ElevationDeg > b.maxEl.la.ElevationDeg {
		b.maxEl = s
	}
}

// finalize builds the Pass record ending at the given sample. Shadow
// flags and transitions are best-effort: on eclipse errors the pass is
// still returned, with a logged warning.
func (f *Finder) finalize(p *propagation.Propagator, q Query, b *passBuilder, end sample) (Pass, bool) {
	if !end.at.After(b.first.at) {
		return Pass{}, false
	}

	pass := Pass{
		Mode:               q.Mode,
		Start:              b.first.at,
		End:                end.at,
		DurationSeconds:    end.at.Sub(b.first.at).Seconds(),
		StationDarkAtStart: geometry.StationDark(q.Observer, b.first.at),
		StationDarkAtEnd:   geometry.StationDark(q.Observer, end.at),
		EclipseTransitions: []eclipse.Transition{},
	}

	if q.Mode == ModeSwath {
		pass.MinDistanceKm = b.minDist.distanceKm
		pass.MinDistanceTime = b.minDist.at
	} else {
		pass.MaxElevationDeg = b.maxEl.la.ElevationDeg
		pass.ApexTime = b.maxEl.at
		pass.AzimuthStartDeg = b.first.la.AzimuthDeg
		pass.AzimuthApexDeg = b.maxEl.la.AzimuthDeg
		pass.AzimuthEndDeg = end.la.AzimuthDeg
	}

	catalogID := p.Elements().CatalogID
	if in, err := f.eclipse.InShadow(p, pass.Start); err == nil {
		pass.SatelliteEclipsedAtStart = in
	} else {
		f.log.Warn("shadow state at pass start unavailable", "catalog_id", catalogID, "error", err)
	}
	if in, err := f.eclipse.InShadow(p, pass.End); err == nil {
		pass.SatelliteEclipsedAtEnd = in
	} else {
		f.log.Warn("shadow state at pass end unavailable", "catalog_id", catalogID, "error", err)
	}

	eval := f.eclipse.BoundaryEvaluator(p, pass.Start, pass.End)
	if trs, err := f.eclipse.Transitions(eval, pass.Start, pass.End); err != nil {
		f.log.Warn("eclipse transitions unavailable", "catalog_id", catalogID, "error", err)
	} else if trs != nil {
		pass.EclipseTransitions = trs
	}

	return pass, true
}
