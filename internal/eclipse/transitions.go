package eclipse

import "time"

// Transitions scanning parameters.
const (
	// Intervals shorter than this get endpoint sampling only.
	shortInterval = 30 * time.Second
	// Coarse scan step cap; shorter intervals use duration/4.
	maxCoarseStep = 120 * time.Second
)

// Evaluator answers whether a satellite is in shadow at an instant.
// Transition scanning depends only on this, so boundary logic is testable
// against synthetic shadow profiles without a propagator.
type Evaluator interface {
	InShadowAt(t time.Time) (bool, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(t time.Time) (bool, error)

func (f EvaluatorFunc) InShadowAt(t time.Time) (bool, error) { return f(t) }

// Transition is one shadow boundary crossing. Time is the earliest
// sampled instant known to be in the new state.
type Transition struct {
	Time       time.Time `json:"time"`
	FromShadow bool      `json:"from_shadow"`
	ToShadow   bool      `json:"to_shadow"`
}

// Transitions locates shadow boundary crossings in [start, end], ordered
// ascending. Short intervals are sampled at the endpoints only; longer
// ones are scanned coarsely and each sign change is narrowed by bisection
// to the finder's precision.
func (f *Finder) Transitions(eval Evaluator, start, end time.Time) ([]Transition, error) {
	if !end.After(start) {
		return nil, nil
	}

	first, err := eval.InShadowAt(start)
	if err != nil {
		return nil, err
	}

	dur := end.Sub(start)
	if dur < shortInterval {
		last, err := eval.InShadowAt(end)
		if err != nil {
			return nil, err
		}
		if last == first {
			return nil, nil
		}
		tr, err := f.refine(eval, start, end, first)
		if err != nil {
			return nil, err
		}
		return []Transition{tr}, nil
	}

	step := dur / 4
	if step > maxCoarseStep {
		step = maxCoarseStep
	}

	var out []Transition
	prev, prevAt := first, start
	for at := start.Add(step); ; at = at.Add(step) {
		if at.After(end) {
			at = end
		}
		cur, err := eval.InShadowAt(at)
		if err != nil {
			return nil, err
		}
		if cur != prev {
			tr, err := f.refine(eval, prevAt, at, prev)
			if err != nil {
				return nil, err
			}
			out = append(out, tr)
		}
		prev, prevAt = cur, at
		if !at.Before(end) {
			break
		}
	}
	return out, nil
}

// refine bisects a bracket [lo, hi] whose endpoints disagree until the
// bracket is within the finder's precision. lo is known to be in
// fromShadow state.
func (f *Finder) refine(eval Evaluator, lo, hi time.Time, fromShadow bool) (Transition, error) {
	for hi.Sub(lo) > f.precision {
		mid := lo.Add(hi.Sub(lo) / 2)
		v, err := eval.InShadowAt(mid)
		if err != nil {
			return Transition{}, err
		}
		if v == fromShadow {
			lo = mid
		} else {
			hi = mid
		}
	}
	return Transition{Time: hi, FromShadow: fromShadow, ToShadow: !fromShadow}, nil
}
