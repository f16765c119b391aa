// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/docker/go-units"

	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// EpochSource reports how many dataset updates have completed. The
// shared barrier is the production source.
type EpochSource interface {
	Epoch() uint32
}

// snapshot is one published generation as seen by this process.
type snapshot struct {
	dataset    *dataset.Dataset
	generation uint64
	digest     [32]byte
	// epoch is the update count observed just before the region
	// header was last read.
	epoch uint32
}

func (s *snapshot) withEpoch(epoch uint32) *snapshot {
	next := *s
	next.epoch = epoch
	return &next
}

// Shared is a facade over a dataset published into a shared region.
type Shared struct {
	region io.ReaderAt
	epochs EpochSource
	logger *slog.Logger

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
	// lastFailure suppresses repeated logging of the same reload
	// error. Guarded by reloadMu.
	lastFailure string
	reloads     atomic.Uint64
}

// NewShared reads the dataset currently in region. The caller must
// ensure no publication is in progress, normally by holding a query
// on the barrier. epochs may be nil, in which case the region header
// is re-read on every call.
func NewShared(region io.ReaderAt, epochs EpochSource, logger *slog.Logger) (*Shared, error) {
	if logger == nil {
		logger = slog.Default()
	}
	shared := &Shared{region: region, epochs: epochs, logger: logger}

	epoch := shared.epoch()
	loaded, header, err := dataset.ReadRegion(region)
	if err != nil {
		return nil, err
	}
	shared.current.Store(&snapshot{dataset: loaded, generation: header.Generation, digest: header.Digest, epoch: epoch})
	shared.logLoaded(loaded, header)
	return shared, nil
}

func (s *Shared) epoch() uint32 {
	if s.epochs == nil {
		return 0
	}
	return s.epochs.Epoch()
}

// dataset returns the dataset to answer from, reloading first if an
// update completed since the last check.
func (s *Shared) dataset() *dataset.Dataset {
	seen := s.current.Load()
	if s.epochs != nil && s.epochs.Epoch() == seen.epoch {
		return seen.dataset
	}
	return s.refresh()
}

func (s *Shared) refresh() *dataset.Dataset {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	current := s.current.Load()
	epoch := s.epoch()
	if s.epochs != nil && epoch == current.epoch {
		// Another query reloaded while this one waited.
		return current.dataset
	}

	// Reuse the snapshot only if both generation and digest match.
	header, err := dataset.ReadRegionHeader(s.region)
	if err == nil && header.Generation == current.generation && header.Digest == current.digest {
		s.current.Store(current.withEpoch(epoch))
		return current.dataset
	}

	var loaded *dataset.Dataset
	if err == nil {
		loaded, header, err = dataset.ReadRegion(s.region)
	}
	if err != nil {
		// Keep serving the previous generation. Recording the epoch
		// stops every query from retrying until the next update.
		s.current.Store(current.withEpoch(epoch))
		if message := err.Error(); message != s.lastFailure {
			s.lastFailure = message
			s.logger.Error("shared dataset reload failed, serving previous generation",
				"generation", current.generation,
				"error", err,
			)
		}
		return current.dataset
	}

	s.lastFailure = ""
	s.current.Store(&snapshot{dataset: loaded, generation: header.Generation, digest: header.Digest, epoch: epoch})
	s.reloads.Add(1)
	s.logLoaded(loaded, header)
	return loaded
}

func (s *Shared) logLoaded(loaded *dataset.Dataset, header dataset.RegionHeader) {
	s.logger.Info("shared dataset loaded",
		"generation", header.Generation,
		"nodes", loaded.NodeCount(),
		"edges", loaded.EdgeCount(),
		"checksum", loaded.Checksum(),
		"timestamp", loaded.Timestamp(),
		"payload", units.HumanSize(float64(header.PayloadLength)),
		"compression", header.Compression.String(),
	)
}

// Generation returns the region generation currently served.
func (s *Shared) Generation() uint64 {
	return s.current.Load().generation
}

// Reloads returns how many times a newer generation was loaded after
// construction.
func (s *Shared) Reloads() uint64 {
	return s.reloads.Load()
}

func (s *Shared) NodeCount() int { return s.dataset().NodeCount() }

func (s *Shared) EdgeCount() int { return s.dataset().EdgeCount() }

func (s *Shared) Coordinate(node dataset.NodeID) dataset.Coordinate {
	return s.dataset().Coordinate(node)
}

func (s *Shared) Edge(index uint32) dataset.Edge { return s.dataset().Edge(index) }

func (s *Shared) OutgoingArcs(node dataset.NodeID) []dataset.Arc {
	return s.dataset().OutgoingArcs(node)
}

func (s *Shared) Name(id uint32) string { return s.dataset().Name(id) }

func (s *Shared) LocateClosestNode(query dataset.Coordinate) (dataset.NodeID, bool) {
	return s.dataset().LocateClosestNode(query)
}

func (s *Shared) NearestPhantomNodes(query dataset.Coordinate, count int) []dataset.PhantomNode {
	return s.dataset().NearestPhantomNodes(query, count)
}

func (s *Shared) PhantomOnEdge(query dataset.Coordinate, edge uint32) (dataset.PhantomNode, bool) {
	return s.dataset().PhantomOnEdge(query, edge)
}

func (s *Shared) Timestamp() string { return s.dataset().Timestamp() }

func (s *Shared) Checksum() uint32 { return s.dataset().Checksum() }

// retryable reports whether a failure to read the region may resolve
// once the datastore publishes.
func retryable(err error) bool {
	return errors.Is(err, dataset.ErrRegionEmpty)
}

func describeRegion(path string, err error) error {
	return fmt.Errorf("reading shared dataset from %s: %w", path, err)
}
