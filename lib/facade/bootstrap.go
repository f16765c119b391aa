// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/shm"
)

// Options selects and locates the dataset.
type Options struct {
	// UseSharedDataset selects the shared facade and barrier. When
	// false, Paths are loaded into process memory.
	UseSharedDataset bool

	Paths        dataset.Paths
	SharedMemory SharedMemoryOptions

	Logger *slog.Logger
}

// SharedMemoryOptions names the shared segments.
type SharedMemoryOptions struct {
	Directory      string
	BarrierSegment string
	DataRegion     string

	// WaitForData is how long to wait for the datastore's first
	// publication. Zero means a single attempt.
	WaitForData time.Duration
}

// Instance is the server's one facade and, in shared mode, the
// barrier guarding it.
type Instance struct {
	Facade Facade

	// Barrier is nil in owned mode.
	Barrier barrier.Barrier

	// Observer is nil in owned mode.
	Observer barrier.Observer

	closers []io.Closer
}

// Close releases the shared mappings. The facade must not be used
// afterwards.
func (i *Instance) Close() error {
	var errs []error
	for index := len(i.closers) - 1; index >= 0; index-- {
		if err := i.closers[index].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}

// Size returns the node and edge counts of the dataset being served.
// In shared mode the counts are read as a query on the barrier.
func (i *Instance) Size() (nodes, edges int) {
	if i.Barrier != nil {
		i.Barrier.BeginQuery()
		defer i.Barrier.EndQuery()
	}
	return i.Facade.NodeCount(), i.Facade.EdgeCount()
}

// Bootstrap constructs the facade selected by options. Any error is
// fatal to the server.
func Bootstrap(ctx context.Context, options Options) (*Instance, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !options.UseSharedDataset {
		internal, err := NewInternal(options.Paths)
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}
		logger.Info("dataset loaded",
			"mode", "owned",
			"nodes", internal.NodeCount(),
			"edges", internal.EdgeCount(),
			"checksum", internal.Checksum(),
			"timestamp", internal.Timestamp(),
		)
		return &Instance{Facade: internal}, nil
	}

	return bootstrapShared(ctx, options.SharedMemory, logger)
}

func bootstrapShared(ctx context.Context, options SharedMemoryOptions, logger *slog.Logger) (*Instance, error) {
	segmentPath := shm.Path(options.Directory, options.BarrierSegment)
	segment, err := shm.OpenSegment(segmentPath, barrier.SegmentSize)
	if err != nil {
		return nil, fmt.Errorf("opening barrier segment: %w", err)
	}
	gate, err := barrier.OpenShared(segment.Bytes())
	if err != nil {
		segment.Close()
		return nil, fmt.Errorf("attaching barrier in %s: %w", segmentPath, err)
	}

	regionPath := shm.Path(options.Directory, options.DataRegion)
	attempt := func() (*attachment, error) {
		region, err := shm.OpenRegion(regionPath)
		if err != nil {
			if errors.Is(err, shm.ErrRegionMissing) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		gate.BeginQuery()
		shared, err := NewShared(region, gate, logger)
		gate.EndQuery()
		if err != nil {
			region.Close()
			if retryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(describeRegion(regionPath, err))
		}
		return &attachment{facade: shared, region: region}, nil
	}

	retryOptions := []backoff.RetryOption{
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Info("waiting for shared dataset",
				"region", regionPath,
				"retry_in", next,
				"reason", err,
			)
		}),
	}
	if options.WaitForData > 0 {
		retryOptions = append(retryOptions, backoff.WithMaxElapsedTime(options.WaitForData))
	} else {
		retryOptions = append(retryOptions, backoff.WithMaxTries(1))
	}

	attached, err := backoff.Retry(ctx, attempt, retryOptions...)
	if err != nil {
		segment.Close()
		return nil, fmt.Errorf("attaching shared dataset: %w", err)
	}

	logger.Info("shared dataset attached",
		"barrier_segment", segmentPath,
		"data_region", regionPath,
		"generation", attached.facade.Generation(),
	)

	return &Instance{
		Facade:   attached.facade,
		Barrier:  gate,
		Observer: gate,
		closers:  []io.Closer{segment, attached.region},
	}, nil
}

type attachment struct {
	facade *Shared
	region *shm.Region
}
