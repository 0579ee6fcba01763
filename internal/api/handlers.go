package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/brightness"
	"github.com/anttikuosmanen-rgb/passcast/internal/httputil"
	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
	"github.com/anttikuosmanen-rgb/passcast/internal/passes"
	"github.com/anttikuosmanen-rgb/passcast/internal/propagation"
	"github.com/anttikuosmanen-rgb/passcast/internal/scheduler"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
)

type satelliteSummary struct {
	CatalogID int                 `json:"catalog_id"`
	Name      string              `json:"name"`
	Epoch     time.Time           `json:"epoch"`
	Staleness tle.StalenessReport `json:"staleness"`
}

type satellitesResponse struct {
	Source     string             `json:"source"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Count      int                `json:"count"`
	Satellites []satelliteSummary `json:"satellites"`
}

type passesResponse struct {
	CatalogID   int           `json:"catalog_id"`
	Name        string        `json:"name"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	Count       int           `json:"count"`
	Passes      []passes.Pass `json:"passes"`
}

type positionsResponse struct {
	CatalogID int                        `json:"catalog_id"`
	Name      string                     `json:"name"`
	Count     int                        `json:"count"`
	Samples   []scheduler.PositionSample `json:"samples"`
}

type trackResponse struct {
	CatalogID int                        `json:"catalog_id"`
	Name      string                     `json:"name"`
	Count     int                        `json:"count"`
	Samples   []scheduler.GeodeticSample `json:"samples"`
}

// brightnessSample is an Estimate with the magnitude made JSON-safe: an
// eclipsed satellite has +Inf magnitude, which JSON cannot carry, so the
// field is absent and Visible false instead.
type brightnessSample struct {
	Time          time.Time `json:"time"`
	Magnitude     *float64  `json:"magnitude,omitempty"`
	Visible       bool      `json:"visible"`
	Eclipsed      bool      `json:"eclipsed"`
	RangeKm       float64   `json:"range_km"`
	PhaseDeg      float64   `json:"phase_angle_deg"`
	PhaseFunction float64   `json:"phase_function"`
}

func toBrightnessSample(e brightness.Estimate) brightnessSample {
	out := brightnessSample{
		Time:          e.Time,
		Eclipsed:      e.Eclipsed,
		RangeKm:       e.RangeKm,
		PhaseDeg:      e.PhaseDeg,
		PhaseFunction: e.PhaseFunction,
	}
	if !math.IsInf(e.Magnitude, 1) {
		m := e.Magnitude
		out.Magnitude = &m
		out.Visible = true
	}
	return out
}

type brightnessResponse struct {
	CatalogID         int              `json:"catalog_id"`
	Name              string           `json:"name"`
	StandardMagnitude float64          `json:"standard_magnitude"`
	WindowStart       time.Time        `json:"window_start"`
	WindowEnd         time.Time        `json:"window_end"`
	Peak              brightnessSample `json:"peak"`
}

type tleMetadataResponse struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Count      int       `json:"count"`
	EpochMin   time.Time `json:"epoch_min"`
	EpochMax   time.Time `json:"epoch_max"`
}

// compute submits a request to the pool and waits for its result. When
// the pool is unavailable the request runs on the server's single
// mutex-guarded fallback executor instead, so the API keeps answering
// through pool shutdown.
func (s *Server) compute(ctx context.Context, req scheduler.Request) (any, error) {
	res, err := s.pool.Submit(req).Wait(ctx)
	if err != nil {
		return nil, err
	}
	if errors.Is(res.Err, scheduler.ErrPoolClosed) {
		metrics.IncSyncFallbacks()
		s.logger.Warn("pool unavailable, computing synchronously", "request", fmt.Sprintf("%T", req))
		s.fallbackMu.Lock()
		defer s.fallbackMu.Unlock()
		return s.fallback.Execute(req)
	}
	return res.Value, res.Err
}

func (s *Server) respondComputeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to write.
	case errors.Is(err, scheduler.ErrWorkerFault):
		s.logger.Error("computation faulted",
			"request_id", requestID(r.Context()), "path", r.URL.Path)
		httputil.RespondError(w, http.StatusInternalServerError, "computation failed")
	default:
		s.logger.Warn("computation failed",
			"request_id", requestID(r.Context()), "path", r.URL.Path, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "computation failed")
	}
}

// lookupElements resolves the catalog_id path parameter against the
// current dataset, writing the error response itself on failure.
func (s *Server) lookupElements(w http.ResponseWriter, r *http.Request) (tle.Elements, bool) {
	id, err := catalogIDParam(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return tle.Elements{}, false
	}
	if s.store.Get() == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "no element data loaded")
		return tle.Elements{}, false
	}
	el, ok := s.store.Find(id)
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, fmt.Sprintf("catalog id %d not in current dataset", id))
		return tle.Elements{}, false
	}
	return el, true
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "no element data loaded")
		return
	}

	now := time.Now().UTC()
	sats := make([]satelliteSummary, 0, ds.Len())
	for _, e := range ds.Entries {
		sats = append(sats, satelliteSummary{
			CatalogID: e.CatalogID,
			Name:      e.Name,
			Epoch:     e.Epoch,
			Staleness: e.StalenessAt(now),
		})
	}
	sort.Slice(sats, func(i, j int) bool { return sats[i].CatalogID < sats[j].CatalogID })

	httputil.RespondJSON(w, http.StatusOK, satellitesResponse{
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt,
		Count:      len(sats),
		Satellites: sats,
	})
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	el, ok := s.lookupElements(w, r)
	if !ok {
		return
	}
	obs, err := parseStation(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseWindow(r, 7*24)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	minEl, err := floatParam(r, "min_elevation_deg", 5, 0, 90)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxPasses, err := intParam(r, "max_passes", 0, 0, maxPassesCap)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.compute(r.Context(), scheduler.ComputePassesElevation{
		Elements: el,
		Query: passes.Query{
			Observer:        obs,
			Start:           start,
			End:             end,
			MinElevationDeg: minEl,
			MaxPasses:       maxPasses,
		},
	})
	if err != nil {
		s.respondComputeError(w, r, err)
		return
	}

	list := value.([]passes.Pass)
	httputil.RespondJSON(w, http.StatusOK, passesResponse{
		CatalogID:   el.CatalogID,
		Name:        el.Name,
		WindowStart: start,
		WindowEnd:   end,
		Count:       len(list),
		Passes:      list,
	})
}

func (s *Server) handleSwathPasses(w http.ResponseWriter, r *http.Request) {
	el, ok := s.lookupElements(w, r)
	if !ok {
		return
	}
	obs, err := parseStation(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseWindow(r, 7*24)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	swathKm, err := requiredFloatParam(r, "swath_km", 1, 20000)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxPasses, err := intParam(r, "max_passes", 0, 0, maxPassesCap)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.compute(r.Context(), scheduler.ComputePassesSwath{
		Elements: el,
		Query: passes.Query{
			Observer:  obs,
			Start:     start,
			End:       end,
			SwathKm:   swathKm,
			MaxPasses: maxPasses,
		},
	})
	if err != nil {
		s.respondComputeError(w, r, err)
		return
	}

	list := value.([]passes.Pass)
	httputil.RespondJSON(w, http.StatusOK, passesResponse{
		CatalogID:   el.CatalogID,
		Name:        el.Name,
		WindowStart: start,
		WindowEnd:   end,
		Count:       len(list),
		Passes:      list,
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	el, ok := s.lookupElements(w, r)
	if !ok {
		return
	}
	times, err := parseSeries(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.compute(r.Context(), scheduler.PropagatePositions{Elements: el, Times: times})
	if err != nil {
		s.respondComputeError(w, r, err)
		return
	}

	samples := value.([]scheduler.PositionSample)
	httputil.RespondJSON(w, http.StatusOK, positionsResponse{
		CatalogID: el.CatalogID,
		Name:      el.Name,
		Count:     len(samples),
		Samples:   samples,
	})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	el, ok := s.lookupElements(w, r)
	if !ok {
		return
	}
	times, err := parseSeries(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.compute(r.Context(), scheduler.PropagateGeodetic{Elements: el, Times: times})
	if err != nil {
		s.respondComputeError(w, r, err)
		return
	}

	samples := value.([]scheduler.GeodeticSample)
	httputil.RespondJSON(w, http.StatusOK, trackResponse{
		CatalogID: el.CatalogID,
		Name:      el.Name,
		Count:     len(samples),
		Samples:   samples,
	})
}

// handleBrightness answers directly rather than through the pool: the
// peak estimate touches a handful of samples and needs no caching.
func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	el, ok := s.lookupElements(w, r)
	if !ok {
		return
	}
	obs, err := parseStation(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := timeParam(r, "start", time.Now().UTC())
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	durS, err := intParam(r, "duration_s", 600, 10, 86400)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := intParam(r, "samples", 0, 0, maxPeakSamples)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stdMag, err := floatParam(r, "std_mag", brightness.StdMagnitude(el.CatalogID, el.Name), -10, 20)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prop, err := propagation.New(el, s.frames)
	if err != nil {
		s.logger.Warn("propagation model rejected element set",
			"catalog_id", el.CatalogID, "error", err)
		httputil.RespondError(w, http.StatusUnprocessableEntity, "element set rejected by propagation model")
		return
	}
	prop.StrictEOP = s.strictEOP

	end := start.Add(time.Duration(durS) * time.Second)
	est, err := brightness.PeakStdMag(prop, obs, start, end, n, stdMag)
	if err != nil {
		s.respondComputeError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, brightnessResponse{
		CatalogID:         el.CatalogID,
		Name:              el.Name,
		StandardMagnitude: stdMag,
		WindowStart:       start,
		WindowEnd:         end,
		Peak:              toBrightnessSample(est),
	})
}

func (s *Server) handleTLEMetadata(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "no element data loaded")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, tleMetadataResponse{
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt,
		AgeSeconds: time.Since(ds.FetchedAt).Seconds(),
		Count:      ds.Len(),
		EpochMin:   ds.EpochRange.Min,
		EpochMax:   ds.EpochRange.Max,
	})
}

func (s *Server) handleTLEFetch(w http.ResponseWriter, r *http.Request) {
	if !s.tleCfg.FetchEnabled {
		httputil.RespondError(w, http.StatusForbidden, "element fetch is disabled")
		return
	}

	ds, err := tle.Refresh(r.Context(), s.fetcher, s.store, s.diskCache, s.logger)
	if err != nil {
		s.logger.Error("manual element refresh failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "element fetch failed")
		return
	}
	metrics.SetTLEEntries(ds.Len())

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"source":     ds.Source,
		"count":      ds.Len(),
		"fetched_at": ds.FetchedAt,
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	res, err := s.pool.Submit(scheduler.ClearCache{}).Wait(r.Context())
	if err != nil {
		return
	}
	if res.Err != nil && !errors.Is(res.Err, scheduler.ErrPoolClosed) {
		s.respondComputeError(w, r, res.Err)
		return
	}

	// The fallback executor keeps caches of its own.
	s.fallbackMu.Lock()
	s.fallback.Execute(scheduler.ClearCache{})
	s.fallbackMu.Unlock()

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"cleared": true,
		"workers": s.pool.Workers(),
	})
}
