// Package brightness estimates apparent visual magnitudes of satellites
// using the diffuse-sphere phase model. An eclipsed satellite reflects
// nothing, so its magnitude is +Inf; callers surfacing JSON must map that
// to an absent value themselves.
package brightness

import (
	"fmt"
	"math"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// DefaultPeakSamples is the sampling density Peak uses when the caller
// passes a non-positive count.
const DefaultPeakSamples = 20

// Estimate is one brightness sample.
type Estimate struct {
	Time          time.Time `json:"time"`
	Magnitude     float64   `json:"magnitude"` // +Inf when eclipsed or at zero phase function
	Eclipsed      bool      `json:"eclipsed"`
	RangeKm       float64   `json:"range_km"`
	PhaseDeg      float64   `json:"phase_angle_deg"`
	PhaseFunction float64   `json:"phase_function"`
	StandardMag   float64   `json:"standard_magnitude"`
}

// Magnitude computes the apparent magnitude from the standard magnitude,
// range, and phase angle. At 1000 km and full phase it returns stdMag
// unchanged. Returns +Inf when the phase function vanishes.
func Magnitude(stdMag, rangeKm, phaseRad float64) float64 {
	fn := phaseFunction(phaseRad)
	if fn <= 0 {
		return math.Inf(1)
	}
	return stdMag - 15 + 5*math.Log10(rangeKm) - 2.5*math.Log10(fn)
}

// phaseFunction is the diffuse-sphere phase integral, 1 at full phase and
// 0 at zero phase.
func phaseFunction(beta float64) float64 {
	return (math.Sin(beta) + (math.Pi-beta)*math.Cos(beta)) / math.Pi
}

// Sample estimates the satellite's apparent magnitude from obs at the
// given instant, with the standard magnitude taken from the catalog.
func Sample(p *propagation.Propagator, obs geometry.Observer, at time.Time) (Estimate, error) {
	e := p.Elements()
	return SampleStdMag(p, obs, at, StdMagnitude(e.CatalogID, e.Name))
}

// SampleStdMag is Sample with a caller-supplied standard magnitude, for
// objects whose intrinsic brightness is known out of band.
func SampleStdMag(p *propagation.Propagator, obs geometry.Observer, at time.Time, stdMag float64) (Estimate, error) {
	st, err := p.StateAt(at)
	if err != nil {
		return Estimate{}, err
	}

	sat := geometry.Vec3{X: st.TEME.X, Y: st.TEME.Y, Z: st.TEME.Z}
	obsTEME := obs.TEMEPosition(transform.GMST(at))
	sun := geometry.SunECI(at)

	satToObs := obsTEME.Sub(sat)
	satToSun := sun.Sub(sat)

	// Phase angle at the satellite between the sun and the observer.
	cosPhase := satToSun.Dot(satToObs) / (satToSun.Norm() * satToObs.Norm())
	cosPhase = math.Max(-1, math.Min(1, cosPhase))
	phase := math.Acos(cosPhase)

	est := Estimate{
		Time:          at,
		RangeKm:       satToObs.Norm(),
		PhaseDeg:      phase * 180 / math.Pi,
		PhaseFunction: phaseFunction(phase),
		StandardMag:   stdMag,
	}

	if geometry.InShadow(sat, sun) {
		est.Eclipsed = true
		est.Magnitude = math.Inf(1)
		return est, nil
	}

	est.Magnitude = Magnitude(stdMag, est.RangeKm, phase)
	return est, nil
}

// Peak returns the brightest sample of n evenly spaced instants in
// [start, end]. When no sample is visible, the result is the closest
// approach with +Inf magnitude. Samples with propagation errors are
// skipped; an error is returned only when no instant is usable.
func Peak(p *propagation.Propagator, obs geometry.Observer, start, end time.Time, n int) (Estimate, error) {
	e := p.Elements()
	return PeakStdMag(p, obs, start, end, n, StdMagnitude(e.CatalogID, e.Name))
}

// PeakStdMag is Peak with an explicit standard magnitude.
func PeakStdMag(p *propagation.Propagator, obs geometry.Observer, start, end time.Time, n int, stdMag float64) (Estimate, error) {
	if n <= 0 {
		n = DefaultPeakSamples
	}
	if !end.After(start) {
		n = 1
	}

	var step time.Duration
	if n > 1 {
		step = end.Sub(start) / time.Duration(n-1)
	}

	best := Estimate{Magnitude: math.Inf(1)}
	closest := Estimate{RangeKm: math.Inf(1)}
	var usable int
	var lastErr error

	for i := 0; i < n; i++ {
		est, err := SampleStdMag(p, obs, start.Add(time.Duration(i)*step), stdMag)
		if err != nil {
			lastErr = err
			continue
		}
		usable++
		if est.RangeKm < closest.RangeKm {
			closest = est
		}
		if !est.Eclipsed && est.Magnitude < best.Magnitude {
			best = est
		}
	}

	if usable == 0 {
		return Estimate{}, fmt.Errorf("peak brightness: no usable samples: %w", lastErr)
	}
	if math.IsInf(best.Magnitude, 1) {
		return closest, nil
	}
	return best, nil
}
