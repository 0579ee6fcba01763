package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/brightness"
	"github.com/anttikuosmanen-rgb/passcast/internal/eclipse"
	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
	"github.com/anttikuosmanen-rgb/passcast/internal/passes"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
)

func main() {
	var (
		file    = flag.String("tle", "", "path to an element set file")
		catalog = flag.Int("catalog", 0, "catalog number to analyze (0 = all)")
		lat     = flag.Float64("lat", 39.7392, "station latitude in degrees")
		lon     = flag.Float64("lon", -104.9903, "station longitude in degrees")
		height  = flag.Float64("height", 1609, "station height in meters")
		hours   = flag.Float64("hours", 24, "search window in hours")
		minEl   = flag.Float64("min-el", 10, "minimum elevation in degrees")
		swathKm = flag.Float64("swath", 0, "swath width in km (0 = elevation search)")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [-catalog N] [-lat L -lon L] [-hours H] [-min-el E | -swath KM]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Println("ERROR reading element file:", err)
		os.Exit(1)
	}
	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Println("ERROR parsing element data:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d element sets\n", len(entries))

	if *catalog != 0 {
		var filtered []tle.Elements
		for _, e := range entries {
			if e.CatalogID == *catalog {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			fmt.Printf("ERROR catalog %d not in file\n", *catalog)
			os.Exit(1)
		}
		entries = filtered
	} else if len(entries) > 10 {
		fmt.Printf("Limiting to first 10 of %d element sets\n", len(entries))
		entries = entries[:10]
	}

	obs := geometry.NewObserver(*lat, *lon, *height)
	finder := passes.NewFinder(eclipse.NewFinder(0, 0, 0), logger)

	now := time.Now().UTC()
	q := passes.Query{
		Observer: obs,
		Start:    now,
		End:      now.Add(time.Duration(*hours * float64(time.Hour))),
	}
	if *swathKm > 0 {
		q.Mode = passes.ModeSwath
		q.SwathKm = *swathKm
	} else {
		q.MinElevationDeg = *minEl
	}
	fmt.Printf("Search window: %v to %v\n", q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))

	total := 0
	for _, e := range entries {
		prop, err := propagation.New(e, nil)
		if err != nil {
			fmt.Printf("  catalog %d: ERROR %v\n", e.CatalogID, err)
			continue
		}

		found, err := finder.Find(prop, q)
		if err != nil {
			fmt.Printf("  catalog %d: ERROR %v\n", e.CatalogID, err)
			continue
		}

		fmt.Printf("  catalog %d (%s): %d passes\n", e.CatalogID, e.Name, len(found))
		total += len(found)
		for i, p := range found {
			if p.Mode == passes.ModeSwath {
				fmt.Printf("    pass %d: start=%v minDist=%.1fkm dur=%.0fs",
					i, p.Start.Format(time.RFC3339), p.MinDistanceKm, p.DurationSeconds)
			} else {
				fmt.Printf("    pass %d: start=%v maxEl=%.1f° dur=%.0fs",
					i, p.Start.Format(time.RFC3339), p.MaxElevationDeg, p.DurationSeconds)
			}
			fmt.Printf(" darkStart=%v eclipsedStart=%v transitions=%d",
				p.StationDarkAtStart, p.SatelliteEclipsedAtStart, len(p.EclipseTransitions))

			if est, err := brightness.Peak(prop, obs, p.Start, p.End, 0); err == nil && !math.IsInf(est.Magnitude, 1) {
				fmt.Printf(" peakMag=%.1f", est.Magnitude)
			}
			fmt.Println()
		}
	}
	fmt.Printf("\nTotal passes found: %d\n", total)
}
