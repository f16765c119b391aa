// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/dataset/datasettest"
	"github.com/bureau-foundation/waypoint/lib/shm"
	"github.com/bureau-foundation/waypoint/lib/testutil"
)

const testTimeout = 10 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sharedOptions(directory string) Options {
	return Options{
		UseSharedDataset: true,
		SharedMemory: SharedMemoryOptions{
			Directory:      directory,
			BarrierSegment: "SharedBarriers",
			DataRegion:     "waypoint-data",
		},
		Logger: testLogger(),
	}
}

// regionImage encodes contents as a complete region.
func regionImage(t *testing.T, contents dataset.Contents, generation uint64) []byte {
	t.Helper()
	built, err := dataset.New(contents)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	payload, header, err := dataset.EncodeRegion(built, dataset.CompressionZstd)
	if err != nil {
		t.Fatalf("EncodeRegion: %v", err)
	}
	header.Generation = generation
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return append(headerBytes, payload...)
}

// writeRegion replaces the region file's contents with image.
func writeRegion(t *testing.T, directory string, image []byte) {
	t.Helper()
	region, err := shm.CreateRegion(shm.Path(directory, "waypoint-data"))
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	defer region.Close()
	if err := region.Truncate(int64(len(image))); err != nil {
		t.Fatal(err)
	}
	if _, err := region.WriteAt(image, 0); err != nil {
		t.Fatal(err)
	}
}

// datastoreBarrier attaches a second mapping of the barrier segment,
// as the datastore process would.
func datastoreBarrier(t *testing.T, directory string) *barrier.Shared {
	t.Helper()
	segment, err := shm.OpenSegment(shm.Path(directory, "SharedBarriers"), barrier.SegmentSize)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { segment.Close() })
	gate, err := barrier.OpenShared(segment.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return gate
}

func withTimestamp(timestamp string) dataset.Contents {
	contents := datasettest.Grid()
	contents.Timestamp = timestamp
	return contents
}

func TestBootstrapOwned(t *testing.T) {
	paths := datasettest.WriteFiles(t, t.TempDir(), datasettest.Grid())

	instance, err := Bootstrap(context.Background(), Options{Paths: paths, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()

	if instance.Barrier != nil || instance.Observer != nil {
		t.Error("owned mode must not create a barrier")
	}
	if _, ok := instance.Facade.(*Internal); !ok {
		t.Errorf("facade is %T, want *Internal", instance.Facade)
	}
	if got := instance.Facade.NodeCount(); got != 9 {
		t.Errorf("NodeCount = %d, want 9", got)
	}
}

func TestBootstrapOwnedMissingFiles(t *testing.T) {
	paths := datasettest.WriteFiles(t, t.TempDir(), datasettest.Grid())
	os.Remove(paths.Nodes)

	if _, err := Bootstrap(context.Background(), Options{Paths: paths, Logger: testLogger()}); err == nil {
		t.Fatal("Bootstrap succeeded without the nodes file")
	}
}

func TestBootstrapShared(t *testing.T) {
	directory := t.TempDir()
	writeRegion(t, directory, regionImage(t, withTimestamp("first"), 1))

	instance, err := Bootstrap(context.Background(), sharedOptions(directory))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()

	if instance.Barrier == nil || instance.Observer == nil {
		t.Fatal("shared mode must create a barrier")
	}
	if got := instance.Facade.Timestamp(); got != "first" {
		t.Errorf("Timestamp = %q, want first", got)
	}
	if state := instance.Observer.State(); state != (barrier.State{}) {
		t.Errorf("barrier left in state %+v after bootstrap", state)
	}
	if _, err := os.Stat(shm.Path(directory, "SharedBarriers")); err != nil {
		t.Errorf("barrier segment not created: %v", err)
	}
}

func TestBootstrapSharedWithoutPublication(t *testing.T) {
	_, err := Bootstrap(context.Background(), sharedOptions(t.TempDir()))
	if !errors.Is(err, shm.ErrRegionMissing) {
		t.Fatalf("Bootstrap error = %v, want ErrRegionMissing", err)
	}
}

func TestBootstrapSharedCorruptRegion(t *testing.T) {
	directory := t.TempDir()
	image := regionImage(t, datasettest.Grid(), 1)
	image[len(image)-1] ^= 0xFF
	writeRegion(t, directory, image)

	options := sharedOptions(directory)
	options.SharedMemory.WaitForData = 3600e9
	_, err := Bootstrap(context.Background(), options)
	if !errors.Is(err, dataset.ErrRegionCorrupt) {
		t.Fatalf("Bootstrap error = %v, want ErrRegionCorrupt without retrying", err)
	}
}

func TestBootstrapSharedForeignBarrier(t *testing.T) {
	directory := t.TempDir()
	writeRegion(t, directory, regionImage(t, datasettest.Grid(), 1))
	garbage := make([]byte, barrier.SegmentSize)
	copy(garbage, "not a barrier")
	if err := os.WriteFile(shm.Path(directory, "SharedBarriers"), garbage, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Bootstrap(context.Background(), sharedOptions(directory)); err == nil {
		t.Fatal("Bootstrap accepted a foreign barrier segment")
	}
}

func TestSharedReloadsAfterUpdate(t *testing.T) {
	directory := t.TempDir()
	writeRegion(t, directory, regionImage(t, withTimestamp("first"), 1))

	instance, err := Bootstrap(context.Background(), sharedOptions(directory))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()
	facade := instance.Facade
	writer := datastoreBarrier(t, directory)

	writer.BeginUpdate()
	writeRegion(t, directory, regionImage(t, withTimestamp("second"), 2))
	writer.EndUpdate()

	instance.Barrier.BeginQuery()
	got := facade.Timestamp()
	instance.Barrier.EndQuery()
	if got != "second" {
		t.Errorf("Timestamp after update = %q, want second", got)
	}
	if instance.Facade != facade {
		t.Error("facade identity changed")
	}
	if reloads := facade.(*Shared).Reloads(); reloads != 1 {
		t.Errorf("Reloads = %d, want 1", reloads)
	}
}

func TestSharedReloadsWhenGenerationRepeats(t *testing.T) {
	directory := t.TempDir()
	writeRegion(t, directory, regionImage(t, withTimestamp("first"), 1))

	instance, err := Bootstrap(context.Background(), sharedOptions(directory))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()
	writer := datastoreBarrier(t, directory)

	query := func() string {
		instance.Barrier.BeginQuery()
		defer instance.Barrier.EndQuery()
		return instance.Facade.Timestamp()
	}

	for _, timestamp := range []string{"from-b", "from-a"} {
		writer.BeginUpdate()
		writeRegion(t, directory, regionImage(t, withTimestamp(timestamp), 2))
		writer.EndUpdate()

		if got := query(); got != timestamp {
			t.Errorf("Timestamp after generation 2 holding %q = %q", timestamp, got)
		}
	}
	if reloads := instance.Facade.(*Shared).Reloads(); reloads != 2 {
		t.Errorf("Reloads = %d, want 2", reloads)
	}
}

func TestInstanceSizeWaitsForUpdate(t *testing.T) {
	directory := t.TempDir()
	grid := datasettest.Grid()
	writeRegion(t, directory, regionImage(t, grid, 1))

	instance, err := Bootstrap(context.Background(), sharedOptions(directory))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()
	writer := datastoreBarrier(t, directory)

	trimmed := datasettest.Grid()
	trimmed.Edges = trimmed.Edges[:len(trimmed.Edges)-1]

	writer.BeginUpdate()
	type size struct{ nodes, edges int }
	sizes := make(chan size, 1)
	go func() {
		nodes, edges := instance.Size()
		sizes <- size{nodes, edges}
	}()
	testutil.RequireEventually(t, testTimeout, func() bool {
		return writer.State().WaitingQueries == 1
	}, "Size never queued behind the update")
	testutil.RequireNotReceived(t, sizes, "Size read the dataset during an update")

	writeRegion(t, directory, regionImage(t, trimmed, 2))
	writer.EndUpdate()

	got := testutil.RequireReceive(t, sizes, testTimeout, "waiting for Size")
	want := size{len(grid.Nodes), len(trimmed.Edges)}
	if got != want {
		t.Errorf("Size = %+v, want %+v", got, want)
	}
	if state := writer.State(); state.ActiveQueries != 0 {
		t.Errorf("ActiveQueries after Size = %d, want 0", state.ActiveQueries)
	}
}

func TestInstanceSizeOwned(t *testing.T) {
	grid := datasettest.Grid()
	instance, err := Bootstrap(context.Background(), Options{
		Paths:  datasettest.WriteFiles(t, t.TempDir(), grid),
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()

	nodes, edges := instance.Size()
	if nodes != len(grid.Nodes) || edges != len(grid.Edges) {
		t.Errorf("Size = %d, %d, want %d, %d", nodes, edges, len(grid.Nodes), len(grid.Edges))
	}
}

func TestSharedKeepsPreviousGenerationOnCorruptUpdate(t *testing.T) {
	directory := t.TempDir()
	writeRegion(t, directory, regionImage(t, withTimestamp("good"), 1))

	instance, err := Bootstrap(context.Background(), sharedOptions(directory))
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer instance.Close()
	writer := datastoreBarrier(t, directory)

	corrupt := regionImage(t, withTimestamp("bad"), 2)
	corrupt[len(corrupt)-1] ^= 0xFF
	writer.BeginUpdate()
	writeRegion(t, directory, corrupt)
	writer.EndUpdate()

	if got := instance.Facade.Timestamp(); got != "good" {
		t.Errorf("Timestamp after corrupt update = %q, want good", got)
	}

	writer.BeginUpdate()
	writeRegion(t, directory, regionImage(t, withTimestamp("repaired"), 3))
	writer.EndUpdate()

	if got := instance.Facade.Timestamp(); got != "repaired" {
		t.Errorf("Timestamp after repair = %q, want repaired", got)
	}
	if got := instance.Facade.(*Shared).Generation(); got != 3 {
		t.Errorf("Generation = %d, want 3", got)
	}
}

// memoryRegion is an in-memory region that tests can rewrite.
type memoryRegion struct {
	mu   sync.Mutex
	data []byte
}

func (r *memoryRegion) ReadAt(p []byte, off int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *memoryRegion) replace(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
}

func TestSharedWithoutEpochSourceChecksEveryCall(t *testing.T) {
	region := &memoryRegion{data: regionImage(t, withTimestamp("first"), 1)}
	shared, err := NewShared(region, nil, testLogger())
	if err != nil {
		t.Fatalf("NewShared: %v", err)
	}

	if got := shared.Timestamp(); got != "first" {
		t.Fatalf("Timestamp = %q", got)
	}
	region.replace(regionImage(t, withTimestamp("second"), 2))
	if got := shared.Timestamp(); got != "second" {
		t.Errorf("Timestamp = %q, want second", got)
	}
	// Same generation: no reload.
	if got := shared.Reloads(); got != 1 {
		t.Errorf("Reloads = %d, want 1", got)
	}
	shared.Checksum()
	if got := shared.Reloads(); got != 1 {
		t.Errorf("Reloads after unchanged generation = %d, want 1", got)
	}
}

func TestNewSharedEmptyRegion(t *testing.T) {
	_, err := NewShared(&memoryRegion{}, nil, testLogger())
	if !errors.Is(err, dataset.ErrRegionEmpty) {
		t.Fatalf("NewShared error = %v, want ErrRegionEmpty", err)
	}
}

func TestSharedDelegatesQueries(t *testing.T) {
	region := &memoryRegion{data: regionImage(t, datasettest.Grid(), 1)}
	shared, err := NewShared(region, barrier.NewLocal(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	reference := datasettest.New(t)

	query := datasettest.Coordinate(1, 1)
	node, ok := shared.LocateClosestNode(query)
	if !ok || node != datasettest.Node(1, 1) {
		t.Errorf("LocateClosestNode = %d, %v", node, ok)
	}
	if shared.Checksum() != reference.Checksum() {
		t.Error("checksum differs from the reference dataset")
	}
	if len(shared.OutgoingArcs(node)) != len(reference.OutgoingArcs(node)) {
		t.Error("OutgoingArcs differs from the reference dataset")
	}
	if shared.EdgeCount() != reference.EdgeCount() || shared.Name(1) != reference.Name(1) {
		t.Error("accessors differ from the reference dataset")
	}
	if got := shared.NearestPhantomNodes(query, 2); len(got) != 2 {
		t.Errorf("NearestPhantomNodes returned %d", len(got))
	}
}
