// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// Facade is the read-only query surface handlers see.
type Facade interface {
	NodeCount() int
	EdgeCount() int
	Coordinate(node dataset.NodeID) dataset.Coordinate
	Edge(index uint32) dataset.Edge
	OutgoingArcs(node dataset.NodeID) []dataset.Arc
	Name(id uint32) string
	LocateClosestNode(query dataset.Coordinate) (dataset.NodeID, bool)
	NearestPhantomNodes(query dataset.Coordinate, count int) []dataset.PhantomNode
	PhantomOnEdge(query dataset.Coordinate, edge uint32) (dataset.PhantomNode, bool)
	Timestamp() string
	Checksum() uint32
}

// Internal is a facade over a dataset owned by this process.
type Internal struct {
	*dataset.Dataset
}

// NewInternal loads the dataset files named by paths.
func NewInternal(paths dataset.Paths) (*Internal, error) {
	loaded, err := dataset.Load(paths)
	if err != nil {
		return nil, err
	}
	return &Internal{Dataset: loaded}, nil
}

var (
	_ Facade = (*Internal)(nil)
	_ Facade = (*Shared)(nil)
)
