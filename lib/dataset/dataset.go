// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/btree"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/waypoint/lib/codec"
)

// NoTimestamp is reported when a dataset carries no timestamp.
const NoTimestamp = "n/a"

// NodeID indexes Contents.Nodes.
type NodeID uint32

// Edge is a road segment between two nodes.
type Edge struct {
	Source NodeID `cbor:"s"`
	Target NodeID `cbor:"t"`
	// Weight is the traversal cost in deciseconds.
	Weight uint32 `cbor:"w"`
	// NameID indexes Contents.Names. Zero when the dataset has no
	// names.
	NameID   uint32 `cbor:"n"`
	Forward  bool   `cbor:"f"`
	Backward bool   `cbor:"b"`
}

// Contents is the serialized dataset.
type Contents struct {
	Nodes     []Coordinate `cbor:"nodes"`
	Edges     []Edge       `cbor:"edges"`
	Names     []string     `cbor:"names"`
	Timestamp string       `cbor:"timestamp"`
}

// Arc is a traversable direction of an edge, as seen from the node it
// leaves.
type Arc struct {
	Edge   uint32
	Target NodeID
	Weight uint32
	NameID uint32
}

// Dataset is validated, indexed, immutable routing data.
type Dataset struct {
	contents Contents
	checksum uint32

	// arcs[arcOffsets[n]:arcOffsets[n+1]] leave node n.
	arcOffsets []uint32
	arcs       []Arc

	nodeIndex *btree.BTreeG[nodeKey]
	edgeIndex *btree.BTreeG[edgeKey]
	// maxEdgeSpan is the largest latitude extent of any edge, in
	// fixed-point units. Nearest-segment search widens its latitude
	// band by this much.
	maxEdgeSpan int64
}

// ErrInvalid wraps every validation failure reported by New.
var ErrInvalid = errors.New("invalid dataset")

// New validates contents and builds a Dataset over them. The checksum
// is derived from the canonical encoding of contents.
func New(contents Contents) (*Dataset, error) {
	if contents.Timestamp == "" {
		contents.Timestamp = NoTimestamp
	}
	raw, err := codec.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	return newWithEncoding(contents, raw)
}

// newWithEncoding is New for callers that already hold the canonical
// encoding of contents.
func newWithEncoding(contents Contents, raw []byte) (*Dataset, error) {
	if err := validate(contents); err != nil {
		return nil, err
	}
	if contents.Timestamp == "" {
		contents.Timestamp = NoTimestamp
	}

	dataset := &Dataset{
		contents: contents,
		checksum: Checksum(raw),
	}
	dataset.buildAdjacency()
	dataset.buildIndexes()
	return dataset, nil
}

// Checksum identifies a dataset by the BLAKE3 digest of its canonical
// encoding, truncated to 32 bits.
func Checksum(encoded []byte) uint32 {
	digest := blake3.Sum256(encoded)
	return binary.LittleEndian.Uint32(digest[:4])
}

func validate(contents Contents) error {
	for i, node := range contents.Nodes {
		if !node.Valid() {
			return fmt.Errorf("%w: node %d has out-of-range coordinate %v", ErrInvalid, i, node)
		}
	}
	nodeCount := NodeID(len(contents.Nodes))
	for i, edge := range contents.Edges {
		if edge.Source >= nodeCount || edge.Target >= nodeCount {
			return fmt.Errorf("%w: edge %d references node outside [0,%d)", ErrInvalid, i, nodeCount)
		}
		if !edge.Forward && !edge.Backward {
			return fmt.Errorf("%w: edge %d is not traversable in either direction", ErrInvalid, i)
		}
		if len(contents.Names) == 0 {
			if edge.NameID != 0 {
				return fmt.Errorf("%w: edge %d has name %d but the dataset has no names", ErrInvalid, i, edge.NameID)
			}
		} else if int(edge.NameID) >= len(contents.Names) {
			return fmt.Errorf("%w: edge %d references name %d of %d", ErrInvalid, i, edge.NameID, len(contents.Names))
		}
	}
	return nil
}

func (d *Dataset) buildAdjacency() {
	nodeCount := len(d.contents.Nodes)
	counts := make([]uint32, nodeCount+1)
	for _, edge := range d.contents.Edges {
		if edge.Forward {
			counts[edge.Source]++
		}
		if edge.Backward {
			counts[edge.Target]++
		}
	}

	d.arcOffsets = make([]uint32, nodeCount+1)
	for node := range nodeCount {
		d.arcOffsets[node+1] = d.arcOffsets[node] + counts[node]
	}

	d.arcs = make([]Arc, d.arcOffsets[nodeCount])
	next := make([]uint32, nodeCount)
	copy(next, d.arcOffsets[:nodeCount])
	for i, edge := range d.contents.Edges {
		if edge.Forward {
			d.arcs[next[edge.Source]] = Arc{Edge: uint32(i), Target: edge.Target, Weight: edge.Weight, NameID: edge.NameID}
			next[edge.Source]++
		}
		if edge.Backward {
			d.arcs[next[edge.Target]] = Arc{Edge: uint32(i), Target: edge.Source, Weight: edge.Weight, NameID: edge.NameID}
			next[edge.Target]++
		}
	}
}

// NodeCount returns the number of nodes.
func (d *Dataset) NodeCount() int { return len(d.contents.Nodes) }

// EdgeCount returns the number of edges.
func (d *Dataset) EdgeCount() int { return len(d.contents.Edges) }

// Coordinate returns the position of node. It panics if node is out
// of range.
func (d *Dataset) Coordinate(node NodeID) Coordinate { return d.contents.Nodes[node] }

// Edge returns edge i. It panics if i is out of range.
func (d *Dataset) Edge(i uint32) Edge { return d.contents.Edges[i] }

// OutgoingArcs returns the arcs leaving node. The slice must not be
// modified.
func (d *Dataset) OutgoingArcs(node NodeID) []Arc {
	if int(node) >= len(d.contents.Nodes) {
		return nil
	}
	return d.arcs[d.arcOffsets[node]:d.arcOffsets[node+1]]
}

// Name returns the street name with the given id, or "" if unknown.
func (d *Dataset) Name(id uint32) string {
	if int(id) >= len(d.contents.Names) {
		return ""
	}
	return d.contents.Names[id]
}

// Timestamp returns the dataset timestamp, or NoTimestamp.
func (d *Dataset) Timestamp() string { return d.contents.Timestamp }

// Checksum returns the dataset's content checksum.
func (d *Dataset) Checksum() uint32 { return d.checksum }

// Contents returns the serialized form. The slices must not be
// modified.
func (d *Dataset) Contents() Contents { return d.contents }
