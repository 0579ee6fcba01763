package tle

import (
	"math"
	"time"
)

// Staleness classifies element-set age. The classification is advisory:
// stale elements still propagate, the accuracy just degrades with epoch
// distance.
type Staleness string

const (
	StalenessFresh Staleness = "fresh"
	StalenessAging Staleness = "aging"
	StalenessStale Staleness = "stale"
)

// Age bands (days since epoch).
const (
	freshMaxDays = 3.0
	agingMaxDays = 14.0
)

// StalenessReport carries the classification plus the inputs behind it.
type StalenessReport struct {
	Level            Staleness `json:"level"`
	AgeDays          float64   `json:"age_days"`
	DecayHorizonDays float64   `json:"decay_horizon_days"`
}

// StalenessAt classifies the element age at the given instant and estimates
// a decay horizon from the B* drag term: high-drag objects lose predictive
// value much faster than the age bands alone suggest. Epochs in the future
// (freshly published elements, clock skew) count as age zero.
func (e Elements) StalenessAt(now time.Time) StalenessReport {
	ageDays := now.Sub(e.Epoch).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}

	// Rough horizon: a zero-drag object holds ~30 days, scaled down as
	// |B*| grows. Clamped to [1, 3650] days.
	horizon := 30.0 / (1.0 + 1e4*math.Abs(e.Bstar))
	horizon = math.Max(1.0, math.Min(3650.0, horizon))

	level := StalenessStale
	switch {
	case ageDays < freshMaxDays:
		level = StalenessFresh
	case ageDays < agingMaxDays:
		level = StalenessAging
	}

	return StalenessReport{
		Level:            level,
		AgeDays:          ageDays,
		DecayHorizonDays: horizon,
	}
}
