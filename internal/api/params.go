package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
)

// Request caps. Series length and window hours bound the CPU one request
// can claim.
const (
	maxWindowHours   = 168
	maxSeriesSamples = 5000
	maxPassesCap     = 200
	maxPeakSamples   = 200
)

func catalogIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("catalog_id"))
	if err != nil || id <= 0 {
		return 0, errors.New("catalog_id must be a positive integer")
	}
	return id, nil
}

func floatParam(r *http.Request, key string, def, min, max float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	if f < min || f > max {
		return 0, fmt.Errorf("%s must be between %g and %g", key, min, max)
	}
	return f, nil
}

func requiredFloatParam(r *http.Request, key string, min, max float64) (float64, error) {
	if r.URL.Query().Get(key) == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	return floatParam(r, key, 0, min, max)
}

func intParam(r *http.Request, key string, def, min, max int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return n, nil
}

func timeParam(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339 (e.g. 2025-02-14T12:00:00Z)", key)
	}
	return t.UTC(), nil
}

// parseStation reads lat, lon, and optional height_m into an observer.
func parseStation(r *http.Request) (geometry.Observer, error) {
	lat, err := requiredFloatParam(r, "lat", -90, 90)
	if err != nil {
		return geometry.Observer{}, err
	}
	lon, err := requiredFloatParam(r, "lon", -180, 180)
	if err != nil {
		return geometry.Observer{}, err
	}
	height, err := floatParam(r, "height_m", 0, -500, 10000)
	if err != nil {
		return geometry.Observer{}, err
	}
	return geometry.NewObserver(lat, lon, height), nil
}

// parseWindow reads start (default now) and hours into a search window.
func parseWindow(r *http.Request, defHours float64) (time.Time, time.Time, error) {
	start, err := timeParam(r, "start", time.Now().UTC())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hours, err := floatParam(r, "hours", defHours, 0.01, maxWindowHours)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(hours * float64(time.Hour))), nil
}

// parseSeries reads start, step_s, and count into a sample time list.
func parseSeries(r *http.Request) ([]time.Time, error) {
	start, err := timeParam(r, "start", time.Now().UTC())
	if err != nil {
		return nil, err
	}
	stepS, err := intParam(r, "step_s", 60, 1, 3600)
	if err != nil {
		return nil, err
	}
	count, err := intParam(r, "count", 90, 1, maxSeriesSamples)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, count)
	for i := range times {
		times[i] = start.Add(time.Duration(i*stepS) * time.Second)
	}
	return times, nil
}
