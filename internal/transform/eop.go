package transform

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const arcsecToRad = math.Pi / (180.0 * 3600.0)

// EOP holds Earth-orientation parameters for one day.
type EOP struct {
	MJD   float64
	XpRad float64 // polar motion x, radians
	YpRad float64 // polar motion y, radians
	DUT1  float64 // UT1-UTC, seconds
}

// EOPTable is a daily Earth-orientation series, sorted by MJD.
// Lookups interpolate linearly and report whether the instant is covered.
type EOPTable struct {
	entries []EOP
}

// LoadEOPFile parses a whitespace-column Earth-orientation file. Each data
// line is "MJD xp_arcsec yp_arcsec dut1_sec"; blank lines and lines starting
// with '#' are skipped.
func LoadEOPFile(path string) (*EOPTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open EOP file: %w", err)
	}
	defer f.Close()

	var entries []EOP
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 4 {
			return nil, fmt.Errorf("EOP line %d: want 4 columns, got %d", line, len(fields))
		}
		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("EOP line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}
		entries = append(entries, EOP{
			MJD:   vals[0],
			XpRad: vals[1] * arcsecToRad,
			YpRad: vals[2] * arcsecToRad,
			DUT1:  vals[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read EOP file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("EOP file %s: no data lines", path)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].MJD < entries[j].MJD })
	return &EOPTable{entries: entries}, nil
}

// Span returns the first and last MJD covered by the table.
func (t *EOPTable) Span() (first, last float64) {
	return t.entries[0].MJD, t.entries[len(t.entries)-1].MJD
}

// Len returns the number of daily entries.
func (t *EOPTable) Len() int { return len(t.entries) }

// Lookup returns interpolated parameters for the given instant. The second
// return is false when the instant falls outside the table's span.
func (t *EOPTable) Lookup(at time.Time) (EOP, bool) {
	mjd := ModifiedJulianDate(at)
	n := len(t.entries)
	if mjd < t.entries[0].MJD || mjd > t.entries[n-1].MJD {
		return EOP{}, false
	}
	// First entry with MJD >= mjd.
	i := sort.Search(n, func(k int) bool { return t.entries[k].MJD >= mjd })
	if i == 0 || t.entries[i].MJD == mjd {
		return t.entries[i], true
	}
	lo, hi := t.entries[i-1], t.entries[i]
	frac := (mjd - lo.MJD) / (hi.MJD - lo.MJD)
	return EOP{
		MJD:   mjd,
		XpRad: lo.XpRad + frac*(hi.XpRad-lo.XpRad),
		YpRad: lo.YpRad + frac*(hi.YpRad-lo.YpRad),
		DUT1:  lo.DUT1 + frac*(hi.DUT1-lo.DUT1),
	}, true
}

// Frames applies the TEME→ECEF chain with Earth-orientation corrections
// when a table is loaded. A nil *Frames (or nil table) is valid and falls
// back to the GMST-only transform, so callers never branch.
type Frames struct {
	eop            *EOPTable
	log            *slog.Logger
	fallbackLogged atomic.Bool
}

// NewFrames builds a Frames around an optional EOP table. log may be nil.
func NewFrames(eop *EOPTable, log *slog.Logger) *Frames {
	return &Frames{eop: eop, log: log}
}

// Covers reports whether Earth-orientation data covers the instant.
// A nil Frames or absent table covers nothing.
func (f *Frames) Covers(at time.Time) bool {
	if f == nil || f.eop == nil {
		return false
	}
	_, ok := f.eop.Lookup(at)
	return ok
}

// GMST returns sidereal time with the UT1-UTC correction applied when the
// instant is covered by the table.
func (f *Frames) GMST(at time.Time) float64 {
	if f == nil || f.eop == nil {
		return GMST(at)
	}
	p, ok := f.eop.Lookup(at)
	if !ok {
		f.noteFallback(at)
		return GMST(at)
	}
	return GMSTWithDUT1(at, p.DUT1)
}

// TEMEToECEF transforms a TEME state to ECEF. With a covering table the
// rotation uses dUT1-corrected sidereal time and small-angle polar motion;
// otherwise it degrades to the plain GMST rotation. It never fails.
func (f *Frames) TEMEToECEF(s StateTEME, at time.Time) StateECEF {
	if f == nil || f.eop == nil {
		return TEMEToECEF(s, at)
	}
	p, ok := f.eop.Lookup(at)
	if !ok {
		f.noteFallback(at)
		return TEMEToECEF(s, at)
	}
	pef := TEMEToECEFAtGMST(s, GMSTWithDUT1(at, p.DUT1))
	return applyPolarMotion(pef, p.XpRad, p.YpRad)
}

func (f *Frames) noteFallback(at time.Time) {
	if f.log == nil || f.fallbackLogged.Swap(true) {
		return
	}
	first, last := f.eop.Span()
	f.log.Debug("time outside EOP coverage, using GMST-only transform",
		"time", at.UTC().Format(time.RFC3339),
		"table_first_mjd", first,
		"table_last_mjd", last)
}

// applyPolarMotion rotates a pseudo-Earth-fixed state into ITRF using the
// small-angle form of the polar motion matrix (Vallado Ch. 3). The angles
// are under an arcsecond, so second-order terms are dropped.
func applyPolarMotion(s StateECEF, xp, yp float64) StateECEF {
	return StateECEF{
		X:  s.X - xp*s.Z,
		Y:  s.Y + yp*s.Z,
		Z:  xp*s.X - yp*s.Y + s.Z,
		VX: s.VX - xp*s.VZ,
		VY: s.VY + yp*s.VZ,
		VZ: xp*s.VX - yp*s.VY + s.VZ,
	}
}
