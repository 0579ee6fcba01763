package passes

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/eclipse"
	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"

	goesName  = "GOES 16"
	goesLine1 = "1 41866U 16071A   25045.50000000  .00000100  00000+0  00000+0 0  9990"
	goesLine2 = "2 41866   0.0500 285.0000 0001000  90.0000 270.0000  1.00270000 30000"

	eqName  = "EQUATOR TEST"
	eqLine1 = "1 90001U 24001A   25045.50000000  .00000100  00000+0  00000+0 0  9990"
	eqLine2 = "2 90001   0.0500 285.0000 0001000  90.0000 270.0000 15.50000000 30000"
)

func newPropagator(t testing.TB, name, l1, l2 string) *propagation.Propagator {
	t.Helper()
	entries, err := tle.Parse(strings.NewReader(name+"\n"+l1+"\n"+l2+"\n"), testLogger)
	if err != nil || len(entries) != 1 {
		t.Fatalf("fixture parse failed: %v (%d entries)", err, len(entries))
	}
	p, err := propagation.New(entries[0], nil)
	if err != nil {
		t.Fatalf("propagator: %v", err)
	}
	return p
}

func newTestFinder() *Finder {
	return NewFinder(eclipse.NewFinder(0, 0, 0), testLogger)
}

// checkInvariants asserts the structural pass properties that hold in
// every mode.
func checkInvariants(t *testing.T, passes []Pass, q Query) {
	t.Helper()
	for i, p := range passes {
		if !p.End.After(p.Start) {
			t.Errorf("pass %d: end %v not after start %v", i, p.End, p.Start)
		}
		if d := p.End.Sub(p.Start).Seconds(); p.DurationSeconds != d {
			t.Errorf("pass %d: duration %v != end-start %v", i, p.DurationSeconds, d)
		}
		if i > 0 && !passes[i-1].End.Before(p.Start) {
			t.Errorf("pass %d overlaps or precedes pass %d", i, i-1)
		}
		for _, tr := range p.EclipseTransitions {
			if tr.Time.Before(p.Start) || tr.Time.After(p.End) {
				t.Errorf("pass %d: transition at %v outside [%v, %v]", i, tr.Time, p.Start, p.End)
			}
		}
		switch q.Mode {
		case ModeElevation, "":
			if p.MaxElevationDeg <= q.MinElevationDeg {
				t.Errorf("pass %d: max elevation %.2f not above threshold %.2f",
					i, p.MaxElevationDeg, q.MinElevationDeg)
			}
			for _, az := range []float64{p.AzimuthStartDeg, p.AzimuthApexDeg, p.AzimuthEndDeg} {
				if az < 0 || az >= 360 {
					t.Errorf("pass %d: azimuth %.2f outside [0, 360)", i, az)
				}
			}
			if p.ApexTime.Before(p.Start) || p.ApexTime.After(p.End) {
				t.Errorf("pass %d: apex time %v outside pass", i, p.ApexTime)
			}
		case ModeSwath:
			if p.MinDistanceKm < 0 || p.MinDistanceKm > q.SwathKm/2 {
				t.Errorf("pass %d: min distance %.1f outside [0, %.1f]",
					i, p.MinDistanceKm, q.SwathKm/2)
			}
			if p.MinDistanceTime.Before(p.Start) || p.MinDistanceTime.After(p.End) {
				t.Errorf("pass %d: min distance time %v outside pass", i, p.MinDistanceTime)
			}
		}
	}
}

func TestFindISSFromEquatorStation(t *testing.T) {
	p := newPropagator(t, issName, issLine1, issLine2)
	f := newTestFinder()

	start := p.Elements().Epoch
	q := Query{
		Observer:        geometry.NewObserver(0, 0, 0),
		Start:           start,
		End:             start.Add(24 * time.Hour),
		MinElevationDeg: 5,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(passes) == 0 {
		t.Fatal("expected at least one ISS pass over the equator in 24 h")
	}
	checkInvariants(t, passes, q)

	// At least one solid pass: above 5 degrees for 5-10 minutes.
	found := false
	for _, pass := range passes {
		if pass.DurationSeconds >= 300 && pass.DurationSeconds <= 600 {
			found = true
		}
		if pass.DurationSeconds > 700 {
			t.Errorf("implausibly long LEO pass: %.0f s", pass.DurationSeconds)
		}
	}
	if !found {
		t.Errorf("no pass with duration in [300, 600] s; got %d passes", len(passes))
	}

	// Boundary flags must agree with a direct recomputation.
	for i, pass := range passes {
		if want := geometry.StationDark(q.Observer, pass.Start); pass.StationDarkAtStart != want {
			t.Errorf("pass %d: station dark at start = %v, recomputed %v", i, pass.StationDarkAtStart, want)
		}
		if want := geometry.StationDark(q.Observer, pass.End); pass.StationDarkAtEnd != want {
			t.Errorf("pass %d: station dark at end = %v, recomputed %v", i, pass.StationDarkAtEnd, want)
		}
	}
}

func TestFindIdempotent(t *testing.T) {
	p := newPropagator(t, issName, issLine1, issLine2)
	f := newTestFinder()

	start := p.Elements().Epoch
	q := Query{
		Observer:        geometry.NewObserver(0, 0, 0),
		Start:           start,
		End:             start.Add(24 * time.Hour),
		MinElevationDeg: 5,
	}

	first, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("first Find: %v", err)
	}
	// Second run hits the warmed shadow cache; results must not change.
	second, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("second Find: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated query changed results:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFindGeostationaryExcluded(t *testing.T) {
	p := newPropagator(t, goesName, goesLine1, goesLine2)
	f := newTestFinder()

	start := p.Elements().Epoch
	q := Query{
		Observer:        geometry.NewObserver(0, -75, 0),
		Start:           start,
		End:             start.Add(24 * time.Hour),
		MinElevationDeg: 5,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if passes == nil || len(passes) != 0 {
		t.Errorf("geostationary elevation query returned %d passes, want empty list", len(passes))
	}
}

func TestFindGeostationarySwathStillRuns(t *testing.T) {
	p := newPropagator(t, goesName, goesLine1, goesLine2)
	f := newTestFinder()

	start := p.Elements().Epoch
	q := Query{
		Observer: geometry.NewObserver(0, -75, 0),
		Start:    start,
		End:      start.Add(6 * time.Hour),
		Mode:     ModeSwath,
		SwathKm:  1000,
	}

	// The distance predicate is well defined for any period; only the
	// elevation mode excludes geostationary objects.
	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	checkInvariants(t, passes, q)
}

func TestFindSwathOverhead(t *testing.T) {
	p := newPropagator(t, eqName, eqLine1, eqLine2)
	f := newTestFinder()

	epoch := p.Elements().Epoch
	st, err := p.StateAt(epoch)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	// Station directly under the satellite at epoch.
	obs := geometry.NewObserver(st.Geodetic.LatDeg, st.Geodetic.LonDeg, 0)

	q := Query{
		Observer: obs,
		Start:    epoch,
		End:      epoch.Add(3 * time.Hour),
		Mode:     ModeSwath,
		SwathKm:  200,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(passes) == 0 {
		t.Fatal("satellite starting overhead produced no swath pass")
	}
	checkInvariants(t, passes, q)

	// The first pass begins at scan start with the target essentially at
	// zero ground distance.
	if !passes[0].Start.Equal(epoch) {
		t.Errorf("first pass starts %v, want scan start %v", passes[0].Start, epoch)
	}
	if passes[0].MinDistanceKm > 10 {
		t.Errorf("overhead min distance = %.1f km, want near zero", passes[0].MinDistanceKm)
	}
}

func TestFindMaxPassesStops(t *testing.T) {
	p := newPropagator(t, eqName, eqLine1, eqLine2)
	f := newTestFinder()

	epoch := p.Elements().Epoch
	st, err := p.StateAt(epoch)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	obs := geometry.NewObserver(st.Geodetic.LatDeg, st.Geodetic.LonDeg, 0)

	// An equatorial station sees an equatorial satellite every synodic
	// revolution, so a 24 h window holds far more than three passes.
	q := Query{
		Observer:        obs,
		Start:           epoch,
		End:             epoch.Add(24 * time.Hour),
		MinElevationDeg: 5,
		MaxPasses:       3,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(passes) != 3 {
		t.Errorf("got %d passes, want exactly MaxPasses=3", len(passes))
	}
	checkInvariants(t, passes, q)
}

func TestFindWindowEndsMidPass(t *testing.T) {
	p := newPropagator(t, eqName, eqLine1, eqLine2)
	f := newTestFinder()

	epoch := p.Elements().Epoch
	st, err := p.StateAt(epoch)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	obs := geometry.NewObserver(st.Geodetic.LatDeg, st.Geodetic.LonDeg, 0)

	q := Query{
		Observer:        obs,
		Start:           epoch,
		End:             epoch.Add(2 * time.Minute),
		MinElevationDeg: 5,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1 clamped to the window", len(passes))
	}
	checkInvariants(t, passes, q)

	pass := passes[0]
	if !pass.Start.Equal(epoch) {
		t.Errorf("pass start = %v, want %v", pass.Start, epoch)
	}
	if pass.End.After(q.End) {
		t.Errorf("pass end %v exceeds window end %v", pass.End, q.End)
	}
	if pass.DurationSeconds < 60 {
		t.Errorf("clamped pass duration = %.0f s, want most of the window", pass.DurationSeconds)
	}
}

func TestFindQueryValidation(t *testing.T) {
	p := newPropagator(t, issName, issLine1, issLine2)
	f := newTestFinder()
	obs := geometry.NewObserver(0, 0, 0)
	start := p.Elements().Epoch

	tests := []struct {
		name string
		q    Query
	}{
		{"end before start", Query{Observer: obs, Start: start, End: start.Add(-time.Hour)}},
		{"end equals start", Query{Observer: obs, Start: start, End: start}},
		{"swath without width", Query{Observer: obs, Start: start, End: start.Add(time.Hour), Mode: ModeSwath}},
		{"unknown mode", Query{Observer: obs, Start: start, End: start.Add(time.Hour), Mode: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Find(p, tt.q); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFindWindowEntirelyBeforeEpoch(t *testing.T) {
	p := newPropagator(t, issName, issLine1, issLine2)
	f := newTestFinder()

	// The effective start clamps to epoch-1h, which is after this whole
	// window; the scan has nothing to do.
	end := p.Elements().Epoch.Add(-30 * 24 * time.Hour)
	q := Query{
		Observer:        geometry.NewObserver(0, 0, 0),
		Start:           end.Add(-24 * time.Hour),
		End:             end,
		MinElevationDeg: 5,
	}

	passes, err := f.Find(p, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(passes) != 0 {
		t.Errorf("got %d passes from a pre-epoch window, want none", len(passes))
	}
}

func BenchmarkFindISS24h(b *testing.B) {
	entries, err := tle.Parse(strings.NewReader(issName+"\n"+issLine1+"\n"+issLine2+"\n"), testLogger)
	if err != nil || len(entries) != 1 {
		b.Fatalf("fixture parse failed: %v", err)
	}
	p, err := propagation.New(entries[0], nil)
	if err != nil {
		b.Fatalf("propagator: %v", err)
	}
	f := newTestFinder()
	q := Query{
		Observer:        geometry.NewObserver(0, 0, 0),
		Start:           entries[0].Epoch,
		End:             entries[0].Epoch.Add(24 * time.Hour),
		MinElevationDeg: 5,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Find(p, q); err != nil {
			b.Fatal(err)
		}
	}
}
