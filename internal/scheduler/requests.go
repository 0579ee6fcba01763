package scheduler

import (
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/passes"
	"github.com/anttikuosmanen-rgb/passcast/internal/tle"
)

// Request is the closed task vocabulary the pool executes. The marker
// method keeps the set sealed: executors switch over every concrete type
// and anything else is a programming error, not a runtime variant.
type Request interface {
	isRequest()
	taskType() string
}

// PropagatePositions asks for an Earth-fixed position/velocity series.
// Result payload: []PositionSample.
type PropagatePositions struct {
	Elements tle.Elements
	Times    []time.Time
}

// PropagateGeodetic asks for a geodetic subpoint series.
// Result payload: []GeodeticSample.
type PropagateGeodetic struct {
	Elements tle.Elements
	Times    []time.Time
}

// ComputePassesElevation runs an elevation-mode pass search; the query
// mode is forced to elevation. Result payload: []passes.Pass.
type ComputePassesElevation struct {
	Elements tle.Elements
	Query    passes.Query
}

// ComputePassesSwath runs a swath-mode pass search; the query mode is
// forced to swath. Result payload: []passes.Pass.
type ComputePassesSwath struct {
	Elements tle.Elements
	Query    passes.Query
}

// ClearCache empties the propagator and shadow caches of every worker.
// The future resolves once each worker has cleared. Result payload: nil.
type ClearCache struct{}

func (PropagatePositions) isRequest()     {}
func (PropagateGeodetic) isRequest()      {}
func (ComputePassesElevation) isRequest() {}
func (ComputePassesSwath) isRequest()     {}
func (ClearCache) isRequest()             {}

func (PropagatePositions) taskType() string     { return "propagate_positions" }
func (PropagateGeodetic) taskType() string      { return "propagate_geodetic" }
func (ComputePassesElevation) taskType() string { return "compute_passes_elevation" }
func (ComputePassesSwath) taskType() string     { return "compute_passes_swath" }
func (ClearCache) taskType() string             { return "clear_cache" }

// PositionSample is one Earth-fixed state in a propagated series.
type PositionSample struct {
	Time time.Time `json:"time"`
	XKm  float64   `json:"x_km"`
	YKm  float64   `json:"y_km"`
	ZKm  float64   `json:"z_km"`
	VxKm float64   `json:"vx_km_s"`
	VyKm float64   `json:"vy_km_s"`
	VzKm float64   `json:"vz_km_s"`
}

// GeodeticSample is one subpoint in a propagated series.
type GeodeticSample struct {
	Time     time.Time `json:"time"`
	LatDeg   float64   `json:"lat_deg"`
	LonDeg   float64   `json:"lon_deg"`
	HeightKm float64   `json:"height_km"`
}

// Result is the single response paired with a submitted task. Value
// holds the per-request payload documented on each Request type; exactly
// one of Value and Err is meaningful.
type Result struct {
	ID    uint64
	Value any
	Err   error
}
