package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/transform"
)

// Parse reads 3-line NORAD element format from r and returns parsed entries.
// Malformed entries are skipped with a warning log; parsing never fails on
// bad satellites, only on unreadable input.
func Parse(r io.Reader, logger *slog.Logger) ([]Elements, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading element data: %w", err)
	}

	var entries []Elements
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync: hunt for the next valid triplet.
			logger.Warn("skipping malformed element entry", "line_index", i, "name", name)
			i++
			continue
		}
		if len(line1) < 64 || len(line2) < 63 {
			logger.Warn("skipping element entry with short lines", "name", name)
			i += 3
			continue
		}

		// Catalog number: line 1 cols 3-7.
		catStr := strings.TrimSpace(line1[2:7])
		catalogID, err := strconv.Atoi(catStr)
		if err != nil {
			logger.Warn("skipping element entry with invalid catalog id", "catalog_str", catStr, "name", name)
			i += 3
			continue
		}

		// Epoch: line 1 cols 19-32, YYDDD.DDDDDDDD.
		epochStr := strings.TrimSpace(line1[18:32])
		epoch, err := parseEpoch(epochStr)
		if err != nil {
			logger.Warn("skipping element entry with invalid epoch", "epoch_str", epochStr, "name", name, "error", err)
			i += 3
			continue
		}

		// Mean motion: line 2 cols 53-63, rev/day. Required downstream for
		// period-based search stepping, so its absence drops the entry.
		mmStr := strings.TrimSpace(line2[52:63])
		meanMotion, err := strconv.ParseFloat(mmStr, 64)
		if err != nil || meanMotion <= 0 || meanMotion > 20 {
			logger.Warn("skipping element entry with invalid mean motion", "mean_motion_str", mmStr, "name", name)
			i += 3
			continue
		}

		// Drag terms are advisory: parse failures zero them.
		ndot, err := strconv.ParseFloat(strings.TrimSpace(line1[33:43]), 64)
		if err != nil {
			ndot = 0
		}
		bstar, err := parseAssumedDecimal(line1[53:61])
		if err != nil {
			bstar = 0
		}

		entries = append(entries, Elements{
			CatalogID:     catalogID,
			Name:          strings.TrimSpace(name),
			Epoch:         epoch,
			EpochJD:       transform.JulianDate(epoch),
			MeanMotion:    meanMotion,
			MeanMotionDot: ndot,
			Bstar:         bstar,
			Line1:         line1,
			Line2:         line2,
		})
		i += 3
	}

	return entries, nil
}

// parseEpoch converts an element epoch string in YYDDD.DDDDDDDD format to
// time.Time. Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

// parseAssumedDecimal parses the TLE "assumed decimal point" exponent
// notation: " 30099-3" means 0.30099e-3. An all-zero field is valid zero.
func parseAssumedDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("sign without digits")
	}

	// The exponent sign separates mantissa digits from the exponent.
	idx := strings.LastIndexAny(s, "+-")
	if idx <= 0 {
		return 0, fmt.Errorf("missing exponent in %q", s)
	}
	mant, err := strconv.ParseFloat("0."+s[:idx], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mantissa in %q: %w", s, err)
	}
	exp, err := strconv.Atoi(s[idx:])
	if err != nil {
		return 0, fmt.Errorf("invalid exponent in %q: %w", s, err)
	}

	return sign * mant * math.Pow(10, float64(exp)), nil
}
