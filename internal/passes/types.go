package passes

import (
	"errors"
	"time"

	"github.com/anttikuosmanen-rgb/passcast/internal/eclipse"
	"github.com/anttikuosmanen-rgb/passcast/internal/geometry"
)

// Mode selects the visibility predicate.
type Mode string

const (
	// ModeElevation finds intervals where elevation exceeds the minimum.
	ModeElevation Mode = "elevation"
	// ModeSwath finds intervals where the ground track is inside the swath.
	ModeSwath Mode = "swath"
)

// DefaultMaxPasses bounds the result list when the query does not.
const DefaultMaxPasses = 50

// Query describes one pass search.
type Query struct {
	Observer geometry.Observer
	Start    time.Time
	End      time.Time

	Mode            Mode    // default ModeElevation
	MinElevationDeg float64 // elevation mode threshold
	SwathKm         float64 // swath mode full width
	MaxPasses       int     // default DefaultMaxPasses
}

func (q Query) withDefaults() Query {
	if q.Mode == "" {
		q.Mode = ModeElevation
	}
	if q.MaxPasses <= 0 {
		q.MaxPasses = DefaultMaxPasses
	}
	return q
}

func (q Query) validate() error {
	if !q.End.After(q.Start) {
		return errors.New("window end must be after start")
	}
	switch q.Mode {
	case ModeElevation:
	case ModeSwath:
		if q.SwathKm <= 0 {
			return errors.New("swath width must be positive")
		}
	default:
		return errors.New("unknown mode " + string(q.Mode))
	}
	return nil
}

// Pass is one visibility interval. Mode selects which field group is
// meaningful: elevation passes fill the apex/azimuth fields, swath passes
// the distance fields. Immutable once returned.
type Pass struct {
	Mode            Mode      `json:"mode"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`

	MaxElevationDeg float64   `json:"max_elevation_deg"`
	ApexTime        time.Time `json:"apex_time"`
	AzimuthStartDeg float64   `json:"azimuth_start_deg"`
	AzimuthApexDeg  float64   `json:"azimuth_apex_deg"`
	AzimuthEndDeg   float64   `json:"azimuth_end_deg"`

	MinDistanceKm   float64   `json:"min_distance_km"`
	MinDistanceTime time.Time `json:"min_distance_time"`

	StationDarkAtStart       bool `json:"station_dark_at_start"`
	StationDarkAtEnd         bool `json:"station_dark_at_end"`
	SatelliteEclipsedAtStart bool `json:"satellite_eclipsed_at_start"`
	SatelliteEclipsedAtEnd   bool `json:"satellite_eclipsed_at_end"`

	EclipseTransitions []eclipse.Transition `json:"eclipse_transitions"`
}
