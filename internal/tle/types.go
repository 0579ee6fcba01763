package tle

import "time"

// Elements is one satellite's two-line element set plus the fields read
// directly out of the fixed columns. Full mean-element decoding stays in the
// SGP4 layer; these are the values the rest of the engine needs without
// initializing a propagation model.
type Elements struct {
	CatalogID     int
	Name          string
	Epoch         time.Time
	EpochJD       float64
	MeanMotion    float64 // revolutions per day
	MeanMotionDot float64 // rev/day² over two, informational
	Bstar         float64 // drag term, 1/earth-radii
	Line1         string
	Line2         string
}

// OrbitalPeriod returns the period implied by the mean motion, or zero
// when the mean motion is absent.
func (e Elements) OrbitalPeriod() time.Duration {
	if e.MeanMotion <= 0 {
		return 0
	}
	return time.Duration(86400.0 / e.MeanMotion * float64(time.Second))
}

// GeostationaryClass reports whether the orbital period exceeds 600 minutes.
// Horizon-crossing searches are meaningless for such orbits: the satellite
// is either visible for days or never rises.
func (e Elements) GeostationaryClass() bool {
	return e.OrbitalPeriod() > 600*time.Minute
}

// EpochRange is the minimum and maximum element epoch in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete element collection from one fetch, indexed by
// catalog id. Immutable once built; replaced wholesale on refresh.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Entries    []Elements

	index map[int]int
}

// NewDataset builds a Dataset, computing the epoch range and catalog index.
func NewDataset(source string, fetchedAt time.Time, entries []Elements) *Dataset {
	ds := &Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Entries:   entries,
		index:     make(map[int]int, len(entries)),
	}
	for i, e := range entries {
		ds.index[e.CatalogID] = i
		if ds.EpochRange.Min.IsZero() || e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
	}
	return ds
}

// Find returns the element set for a catalog id.
func (d *Dataset) Find(catalogID int) (Elements, bool) {
	i, ok := d.index[catalogID]
	if !ok {
		return Elements{}, false
	}
	return d.Entries[i], true
}

// Len returns the number of element sets in the dataset.
func (d *Dataset) Len() int { return len(d.Entries) }
