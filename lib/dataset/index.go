// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"math"
	"sort"

	"github.com/google/btree"
)

const (
	// indexDegree is the B-tree branching factor.
	indexDegree = 32

	// initialSearchRadius is the first search window in meters. Each
	// miss doubles it.
	initialSearchRadius = 250.0

	maxLatitude = 90 * CoordinatePrecision
)

type nodeKey struct {
	lat  int32
	node NodeID
}

func lessNodeKey(a, b nodeKey) bool {
	if a.lat != b.lat {
		return a.lat < b.lat
	}
	return a.node < b.node
}

// edgeKey orders edges by their southernmost latitude.
type edgeKey struct {
	minLat int32
	edge   uint32
}

func lessEdgeKey(a, b edgeKey) bool {
	if a.minLat != b.minLat {
		return a.minLat < b.minLat
	}
	return a.edge < b.edge
}

// PhantomNode is a position snapped onto a road segment.
type PhantomNode struct {
	// Location is the snapped position on the segment.
	Location Coordinate `cbor:"location"`
	// Edge indexes the dataset's edges.
	Edge   uint32 `cbor:"edge"`
	Source NodeID `cbor:"source"`
	Target NodeID `cbor:"target"`
	NameID uint32 `cbor:"name"`
	// Ratio is the position along the segment from Source (0) to
	// Target (1).
	Ratio float64 `cbor:"ratio"`
	// Distance from the queried coordinate to Location in meters.
	Distance float64 `cbor:"distance"`
}

func (d *Dataset) buildIndexes() {
	d.nodeIndex = btree.NewG(indexDegree, lessNodeKey)
	for i, node := range d.contents.Nodes {
		d.nodeIndex.ReplaceOrInsert(nodeKey{lat: node.Lat, node: NodeID(i)})
	}

	d.edgeIndex = btree.NewG(indexDegree, lessEdgeKey)
	for i, edge := range d.contents.Edges {
		source := d.contents.Nodes[edge.Source]
		target := d.contents.Nodes[edge.Target]
		low, high := source.Lat, target.Lat
		if low > high {
			low, high = high, low
		}
		d.edgeIndex.ReplaceOrInsert(edgeKey{minLat: low, edge: uint32(i)})
		d.maxEdgeSpan = max(d.maxEdgeSpan, int64(high)-int64(low))
	}
}

// searchWindow converts a radius in meters to a latitude window in
// fixed-point units. Any point within radius of the query lies within
// the window, because great-circle distance is never less than the
// meridian distance.
func searchWindow(radius float64) int64 {
	return int64(math.Ceil(radius / metersPerUnit))
}

func clampLatitude(lat int64) int32 {
	return int32(max(-maxLatitude-1, min(maxLatitude+1, lat)))
}

func coversAllLatitudes(query Coordinate, window int64) bool {
	return int64(query.Lat)-window <= -maxLatitude && int64(query.Lat)+window >= maxLatitude
}

// LocateClosestNode returns the node nearest to query. It returns
// false when the dataset has no nodes.
func (d *Dataset) LocateClosestNode(query Coordinate) (NodeID, bool) {
	if len(d.contents.Nodes) == 0 {
		return 0, false
	}

	var best NodeID
	bestDistance := math.Inf(1)
	for radius := initialSearchRadius; ; radius *= 2 {
		window := searchWindow(radius)
		low := clampLatitude(int64(query.Lat) - window)
		high := clampLatitude(int64(query.Lat) + window + 1)
		d.nodeIndex.AscendRange(nodeKey{lat: low}, nodeKey{lat: high}, func(key nodeKey) bool {
			distance := Distance(query, d.contents.Nodes[key.node])
			if distance < bestDistance || (distance == bestDistance && key.node < best) {
				best, bestDistance = key.node, distance
			}
			return true
		})
		if bestDistance <= radius || coversAllLatitudes(query, window) {
			return best, true
		}
	}
}

// NearestPhantomNodes snaps query onto up to count road segments,
// nearest first. Ties are ordered by edge index.
func (d *Dataset) NearestPhantomNodes(query Coordinate, count int) []PhantomNode {
	if count <= 0 || len(d.contents.Edges) == 0 {
		return nil
	}

	for radius := initialSearchRadius; ; radius *= 2 {
		window := searchWindow(radius)
		low := clampLatitude(int64(query.Lat) - window - d.maxEdgeSpan)
		high := clampLatitude(int64(query.Lat) + window + 1)

		var candidates []PhantomNode
		d.edgeIndex.AscendRange(edgeKey{minLat: low}, edgeKey{minLat: high}, func(key edgeKey) bool {
			candidates = append(candidates, d.phantomOnEdge(query, key.edge))
			return true
		})
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Distance != candidates[j].Distance {
				return candidates[i].Distance < candidates[j].Distance
			}
			return candidates[i].Edge < candidates[j].Edge
		})

		// Every segment within radius is in the band, so once count
		// of them are found the ordering is final.
		within := sort.Search(len(candidates), func(i int) bool {
			return candidates[i].Distance > radius
		})
		if within >= count {
			return candidates[:count]
		}
		if coversAllLatitudes(query, window) {
			return candidates[:min(count, len(candidates))]
		}
	}
}

// PhantomOnEdge snaps query onto a specific edge. It returns false if
// the edge does not exist.
func (d *Dataset) PhantomOnEdge(query Coordinate, edge uint32) (PhantomNode, bool) {
	if int(edge) >= len(d.contents.Edges) {
		return PhantomNode{}, false
	}
	return d.phantomOnEdge(query, edge), true
}

func (d *Dataset) phantomOnEdge(query Coordinate, index uint32) PhantomNode {
	edge := d.contents.Edges[index]
	location, ratio := project(query, d.contents.Nodes[edge.Source], d.contents.Nodes[edge.Target])
	return PhantomNode{
		Location: location,
		Edge:     index,
		Source:   edge.Source,
		Target:   edge.Target,
		NameID:   edge.NameID,
		Ratio:    ratio,
		Distance: Distance(query, location),
	}
}
