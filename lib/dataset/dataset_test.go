// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset_test

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/dataset/datasettest"
)

func TestNewRejectsInvalidContents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dataset.Contents)
	}{
		{"coordinate out of range", func(c *dataset.Contents) {
			c.Nodes[0] = dataset.FromDegrees(91, 0)
		}},
		{"edge to missing node", func(c *dataset.Contents) {
			c.Edges[0].Target = dataset.NodeID(len(c.Nodes))
		}},
		{"untraversable edge", func(c *dataset.Contents) {
			c.Edges[0].Forward, c.Edges[0].Backward = false, false
		}},
		{"name out of range", func(c *dataset.Contents) {
			c.Edges[0].NameID = uint32(len(c.Names))
		}},
		{"name without names", func(c *dataset.Contents) {
			c.Names = nil
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			contents := datasettest.Grid()
			test.mutate(&contents)
			_, err := dataset.New(contents)
			if !errors.Is(err, dataset.ErrInvalid) {
				t.Fatalf("New error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDatasetAccessors(t *testing.T) {
	grid := datasettest.New(t)

	if grid.NodeCount() != 9 || grid.EdgeCount() != 12 {
		t.Fatalf("counts = %d nodes, %d edges; want 9, 12", grid.NodeCount(), grid.EdgeCount())
	}
	if got := grid.Coordinate(datasettest.Node(1, 2)); got != datasettest.Coordinate(1, 2) {
		t.Errorf("Coordinate = %v", got)
	}
	if got := grid.Name(2); got != "Torstraße" {
		t.Errorf("Name(2) = %q", got)
	}
	if got := grid.Name(99); got != "" {
		t.Errorf("Name(99) = %q, want empty", got)
	}
	if got := grid.Timestamp(); got != datasettest.Timestamp {
		t.Errorf("Timestamp = %q", got)
	}
}

func TestTimestampDefault(t *testing.T) {
	contents := datasettest.Grid()
	contents.Timestamp = ""
	built, err := dataset.New(contents)
	if err != nil {
		t.Fatal(err)
	}
	if got := built.Timestamp(); got != dataset.NoTimestamp {
		t.Errorf("Timestamp = %q, want %q", got, dataset.NoTimestamp)
	}
}

func TestOutgoingArcsRespectDirection(t *testing.T) {
	grid := datasettest.New(t)

	// The one-way block runs from (2,1) to (2,2).
	from := grid.OutgoingArcs(datasettest.Node(2, 1))
	if len(from) != 3 {
		t.Fatalf("arcs from (2,1) = %+v, want 3", from)
	}
	reachesEast := false
	for _, arc := range from {
		if arc.Target == datasettest.Node(2, 2) {
			reachesEast = true
		}
	}
	if !reachesEast {
		t.Error("one-way block not traversable forward")
	}

	back := grid.OutgoingArcs(datasettest.Node(2, 2))
	if len(back) != 1 || back[0].Target != datasettest.Node(1, 2) {
		t.Errorf("arcs from (2,2) = %+v, want only south to (1,2)", back)
	}

	if arcs := grid.OutgoingArcs(dataset.NodeID(1000)); arcs != nil {
		t.Errorf("arcs from missing node = %+v", arcs)
	}
}

func TestChecksum(t *testing.T) {
	first := datasettest.New(t)
	second := datasettest.New(t)
	if first.Checksum() != second.Checksum() {
		t.Fatal("identical contents produced different checksums")
	}

	contents := datasettest.Grid()
	contents.Edges[0].Weight++
	changed, err := dataset.New(contents)
	if err != nil {
		t.Fatal(err)
	}
	if changed.Checksum() == first.Checksum() {
		t.Error("changed contents kept the checksum")
	}
}

func TestLocateClosestNode(t *testing.T) {
	grid := datasettest.New(t)

	node, ok := grid.LocateClosestNode(dataset.FromDegrees(52.52104, 13.40098))
	if !ok || node != datasettest.Node(1, 1) {
		t.Errorf("LocateClosestNode = %d, %v; want %d", node, ok, datasettest.Node(1, 1))
	}

	// A query on another continent still finds the grid.
	node, ok = grid.LocateClosestNode(dataset.FromDegrees(-33.9, 18.4))
	if !ok || node != datasettest.Node(0, 0) && node != datasettest.Node(0, 2) {
		t.Errorf("distant query found %d, %v; want a southern corner", node, ok)
	}

	empty, err := dataset.New(dataset.Contents{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := empty.LocateClosestNode(dataset.FromDegrees(0, 0)); ok {
		t.Error("empty dataset located a node")
	}
}

func TestNearestPhantomNodes(t *testing.T) {
	grid := datasettest.New(t)

	// Just north of the middle of the (1,1)-(1,2) block.
	query := dataset.FromDegrees(52.5211, 13.4015)
	candidates := grid.NearestPhantomNodes(query, 3)
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}

	first := candidates[0]
	if first.Source != datasettest.Node(1, 1) || first.Target != datasettest.Node(1, 2) {
		t.Errorf("nearest segment = %d-%d, want %d-%d",
			first.Source, first.Target, datasettest.Node(1, 1), datasettest.Node(1, 2))
	}
	if grid.Name(first.NameID) != "Torstraße" {
		t.Errorf("nearest street = %q", grid.Name(first.NameID))
	}
	if first.Ratio < 0.45 || first.Ratio > 0.55 {
		t.Errorf("ratio = %f, want about 0.5", first.Ratio)
	}
	if first.Distance < 9 || first.Distance > 13 {
		t.Errorf("distance = %.1fm, want about 11m", first.Distance)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Distance < candidates[i-1].Distance {
			t.Errorf("candidates out of order at %d: %+v", i, candidates)
		}
	}

	if all := grid.NearestPhantomNodes(query, 100); len(all) != grid.EdgeCount() {
		t.Errorf("asking for more candidates than edges returned %d, want %d", len(all), grid.EdgeCount())
	}
	if none := grid.NearestPhantomNodes(query, 0); none != nil {
		t.Errorf("count 0 returned %+v", none)
	}
}

func TestPhantomOnEdge(t *testing.T) {
	grid := datasettest.New(t)

	phantom, ok := grid.PhantomOnEdge(datasettest.Coordinate(0, 0), 0)
	if !ok || phantom.Ratio != 0 || phantom.Distance != 0 {
		t.Errorf("PhantomOnEdge at the source = %+v, %v", phantom, ok)
	}
	if _, ok := grid.PhantomOnEdge(datasettest.Coordinate(0, 0), 500); ok {
		t.Error("PhantomOnEdge accepted a missing edge")
	}
}
