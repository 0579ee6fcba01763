package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Refresh fetches the configured sources, parses the result, and installs
// it as the current dataset. Concurrent refreshes are serialized on the
// store's fetch mutex; readers keep the previous dataset until the swap.
// The disk cache write is best-effort and may be nil.
func Refresh(ctx context.Context, f *Fetcher, s *Store, c *DiskCache, logger *slog.Logger) (*Dataset, error) {
	s.Lock()
	defer s.Unlock()

	data, err := f.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch element data: %w", err)
	}

	entries, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parse element data: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("fetched data contains no element sets")
	}

	ds := NewDataset(f.SourceURL(), time.Now().UTC(), entries)
	s.Set(ds)

	if c != nil {
		if err := c.Write(data, ds.FetchedAt); err != nil {
			logger.Warn("failed to write element cache", "error", err)
		}
	}

	logger.Info("element dataset refreshed",
		"source", ds.Source,
		"count", ds.Len(),
		"epoch_min", ds.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", ds.EpochRange.Max.Format(time.RFC3339),
	)
	return ds, nil
}
