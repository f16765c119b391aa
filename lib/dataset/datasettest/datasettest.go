// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datasettest provides a small street grid for tests of
// packages that consume datasets.
//
// The grid has GridSize × GridSize nodes spaced GridSpacing degrees
// apart, starting at Origin and growing north and east. Every pair of
// horizontally or vertically adjacent nodes is joined by a named,
// two-way street, except the easternmost block of the northern row,
// which is one-way eastbound.
package datasettest

import (
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/waypoint/lib/dataset"
)

const (
	GridSize    = 3
	GridSpacing = 0.001
	Timestamp   = "2026-10-01T00:00:00Z"
)

// Origin is the south-western corner of the grid.
var Origin = dataset.FromDegrees(52.520, 13.400)

// Names indexed by Edge.NameID. Rows are named south to north, then
// columns west to east.
var Names = []string{
	"",
	"Invalidenstraße",
	"Torstraße",
	"Linienstraße",
	"Chausseestraße",
	"Friedrichstraße",
	"Oranienburger Straße",
}

// Node returns the id of the node at row (south to north) and column
// (west to east).
func Node(row, column int) dataset.NodeID {
	return dataset.NodeID(row*GridSize + column)
}

// Coordinate returns the position of the node at row and column.
func Coordinate(row, column int) dataset.Coordinate {
	lat, lon := Origin.Degrees()
	return dataset.FromDegrees(lat+float64(row)*GridSpacing, lon+float64(column)*GridSpacing)
}

// Grid returns the grid's contents.
func Grid() dataset.Contents {
	contents := dataset.Contents{
		Names:     append([]string(nil), Names...),
		Timestamp: Timestamp,
	}
	for row := range GridSize {
		for column := range GridSize {
			contents.Nodes = append(contents.Nodes, Coordinate(row, column))
		}
	}
	for row := range GridSize {
		for column := range GridSize - 1 {
			edge := dataset.Edge{
				Source:   Node(row, column),
				Target:   Node(row, column+1),
				Weight:   100,
				NameID:   uint32(1 + row),
				Forward:  true,
				Backward: true,
			}
			if row == GridSize-1 && column == GridSize-2 {
				edge.Backward = false
			}
			contents.Edges = append(contents.Edges, edge)
		}
	}
	for column := range GridSize {
		for row := range GridSize - 1 {
			contents.Edges = append(contents.Edges, dataset.Edge{
				Source:   Node(row, column),
				Target:   Node(row+1, column),
				Weight:   150,
				NameID:   uint32(1 + GridSize + column),
				Forward:  true,
				Backward: true,
			})
		}
	}
	return contents
}

// New returns the grid as an indexed dataset.
func New(t testing.TB) *dataset.Dataset {
	t.Helper()
	built, err := dataset.New(Grid())
	if err != nil {
		t.Fatalf("building test grid: %v", err)
	}
	return built
}

// WriteFiles saves contents into directory and returns the paths.
// Edges are zstd-compressed and names lz4-compressed so loaders
// exercise every file encoding.
func WriteFiles(t testing.TB, directory string, contents dataset.Contents) dataset.Paths {
	t.Helper()
	paths := dataset.Paths{
		Nodes:     filepath.Join(directory, "grid.nodes"),
		Edges:     filepath.Join(directory, "grid.edges.zst"),
		Names:     filepath.Join(directory, "grid.names.lz4"),
		Timestamp: filepath.Join(directory, "timestamp"),
	}
	if err := dataset.Save(paths, contents); err != nil {
		t.Fatalf("writing dataset files: %v", err)
	}
	return paths
}
