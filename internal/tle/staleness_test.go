package tle

import (
	"math"
	"testing"
	"time"
)

func TestStalenessBands(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		ageDays float64
		want    Staleness
	}{
		{"one day", 1, StalenessFresh},
		{"just under fresh bound", 2.9, StalenessFresh},
		{"one week", 7, StalenessAging},
		{"one month", 30, StalenessStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Elements{Epoch: now.Add(-time.Duration(tt.ageDays * 24 * float64(time.Hour)))}
			rep := e.StalenessAt(now)
			if rep.Level != tt.want {
				t.Errorf("level = %s, want %s (age %.1f d)", rep.Level, tt.want, rep.AgeDays)
			}
			if math.Abs(rep.AgeDays-tt.ageDays) > 0.01 {
				t.Errorf("AgeDays = %.3f, want %.3f", rep.AgeDays, tt.ageDays)
			}
		})
	}
}

func TestStalenessFutureEpoch(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	e := Elements{Epoch: now.Add(2 * time.Hour)}
	rep := e.StalenessAt(now)
	if rep.AgeDays != 0 {
		t.Errorf("future epoch AgeDays = %v, want 0", rep.AgeDays)
	}
	if rep.Level != StalenessFresh {
		t.Errorf("future epoch level = %s, want fresh", rep.Level)
	}
}

func TestStalenessDecayHorizon(t *testing.T) {
	now := time.Now()

	// Zero drag holds the full 30-day horizon.
	e := Elements{Epoch: now, Bstar: 0}
	if h := e.StalenessAt(now).DecayHorizonDays; math.Abs(h-30) > 1e-9 {
		t.Errorf("zero-drag horizon = %.2f, want 30", h)
	}

	// ISS-like drag shortens it substantially.
	e = Elements{Epoch: now, Bstar: 3.0099e-4}
	h := e.StalenessAt(now).DecayHorizonDays
	if h < 7 || h > 8 {
		t.Errorf("ISS-drag horizon = %.2f, want ~7.5", h)
	}

	// Extreme drag clamps at the floor.
	e = Elements{Epoch: now, Bstar: 1.0}
	if h := e.StalenessAt(now).DecayHorizonDays; h != 1 {
		t.Errorf("extreme-drag horizon = %.2f, want clamp to 1", h)
	}
}
