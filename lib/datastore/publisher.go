// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/go-units"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/clock"
	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// Region is the writable data region. *shm.Region implements it.
type Region interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
}

// PublisherConfig holds a Publisher's collaborators.
type PublisherConfig struct {
	Writer barrier.Writer
	Region Region

	Compression dataset.Compression

	// Optional.
	Clock  clock.Clock
	Logger *slog.Logger
}

// Publisher writes datasets into a region under the barrier.
type Publisher struct {
	writer      barrier.Writer
	region      Region
	compression dataset.Compression
	clock       clock.Clock
	logger      *slog.Logger
}

// NewPublisher returns a Publisher. Writer and Region are required.
func NewPublisher(config PublisherConfig) (*Publisher, error) {
	if config.Writer == nil {
		return nil, errors.New("datastore: Writer is required")
	}
	if config.Region == nil {
		return nil, errors.New("datastore: Region is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Publisher{
		writer:      config.Writer,
		region:      config.Region,
		compression: config.Compression,
		clock:       config.Clock,
		logger:      config.Logger,
	}, nil
}

// Publish replaces the region's dataset with published and returns
// the header it was written under.
func (p *Publisher) Publish(published *dataset.Dataset) (dataset.RegionHeader, error) {
	payload, header, err := dataset.EncodeRegion(published, p.compression)
	if err != nil {
		return dataset.RegionHeader{}, err
	}

	start := p.clock.Now()
	p.writer.BeginUpdate()
	drained := clock.Since(p.clock, start)
	// The generation is read under the update so concurrent
	// publishers stamp distinct generations.
	header.Generation = p.previousGeneration() + 1
	err = p.write(header, payload)
	p.writer.EndUpdate()
	held := clock.Since(p.clock, start) - drained

	if err != nil {
		return dataset.RegionHeader{}, fmt.Errorf("publishing generation %d: %w", header.Generation, err)
	}

	p.logger.Info("dataset published",
		"generation", header.Generation,
		"nodes", published.NodeCount(),
		"edges", published.EdgeCount(),
		"checksum", published.Checksum(),
		"timestamp", published.Timestamp(),
		"payload", units.HumanSize(float64(header.PayloadLength)),
		"raw", units.HumanSize(float64(header.RawLength)),
		"compression", header.Compression.String(),
		"drain_wait", drained,
		"update_held", held,
	)
	return header, nil
}

// previousGeneration reads the generation currently in the region.
// An empty or unreadable region counts as generation zero.
func (p *Publisher) previousGeneration() uint64 {
	header, err := dataset.ReadRegionHeader(p.region)
	if err != nil {
		if !errors.Is(err, dataset.ErrRegionEmpty) {
			p.logger.Warn("existing region header unreadable, restarting generations", "error", err)
		}
		return 0
	}
	return header.Generation
}

// write lays out the region. Queries are excluded for its duration.
func (p *Publisher) write(header dataset.RegionHeader, payload []byte) error {
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return err
	}
	if err := p.region.Truncate(int64(dataset.RegionHeaderSize + len(payload))); err != nil {
		return err
	}
	if _, err := p.region.WriteAt(payload, dataset.RegionHeaderSize); err != nil {
		return err
	}
	if _, err := p.region.WriteAt(headerBytes, 0); err != nil {
		return err
	}
	return p.region.Sync()
}
