// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Dataset.UseShared {
		t.Error("expected use_shared=false by default")
	}
	if cfg.SharedMemory.BarrierSegment != "SharedBarriers" {
		t.Errorf("expected barrier_segment=SharedBarriers, got %s", cfg.SharedMemory.BarrierSegment)
	}
	if cfg.SharedMemory.Directory != "/dev/shm" {
		t.Errorf("expected directory=/dev/shm, got %s", cfg.SharedMemory.Directory)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Log.Format)
	}
}

func TestLoad_RequiresWaypointConfig(t *testing.T) {
	t.Setenv("WAYPOINT_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when WAYPOINT_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "WAYPOINT_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithWaypointConfig(t *testing.T) {
	path := writeConfig(t, `
environment: staging
dataset:
  use_shared: true
server:
  socket_path: /test/routed.sock
`)
	t.Setenv("WAYPOINT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if !cfg.Dataset.UseShared {
		t.Error("expected use_shared=true")
	}
	if cfg.Server.SocketPath != "/test/routed.sock" {
		t.Errorf("expected socket_path=/test/routed.sock, got %s", cfg.Server.SocketPath)
	}
	// Unset fields keep their defaults.
	if cfg.SharedMemory.DataRegion != "waypoint-data" {
		t.Errorf("expected default data_region, got %s", cfg.SharedMemory.DataRegion)
	}
}

func TestLoadFile_ExpandsDatasetPaths(t *testing.T) {
	path := writeConfig(t, `
dataset:
  paths:
    nodes: ${WAYPOINT_DATA}/berlin.nodes
    edges: ${WAYPOINT_DATA}/berlin.edges.zst
    timestamp: ${TIMESTAMP_FILE:-/var/lib/waypoint/timestamp}
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	directory := filepath.Dir(path)
	if cfg.Dataset.Paths.Nodes != filepath.Join(directory, "berlin.nodes") {
		t.Errorf("nodes = %s, want it under %s", cfg.Dataset.Paths.Nodes, directory)
	}
	if cfg.Dataset.Paths.Edges != filepath.Join(directory, "berlin.edges.zst") {
		t.Errorf("edges = %s, want it under %s", cfg.Dataset.Paths.Edges, directory)
	}
	if cfg.Dataset.Paths.Timestamp != "/var/lib/waypoint/timestamp" {
		t.Errorf("timestamp = %s, want the default", cfg.Dataset.Paths.Timestamp)
	}

	files := cfg.DatasetFiles()
	if files.Nodes != cfg.Dataset.Paths.Nodes || files.Edges != cfg.Dataset.Paths.Edges || files.Names != "" {
		t.Errorf("DatasetFiles = %+v", files)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, "dataset: [unterminated\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: staging
dataset:
  use_shared: false
log:
  level: info
staging:
  use_shared: true
  log:
    level: debug
  shared_memory:
    data_region: staging-data
production:
  log:
    level: error
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Dataset.UseShared {
		t.Error("staging override should enable use_shared")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected staging log level debug, got %s", cfg.Log.Level)
	}
	if cfg.SharedMemory.DataRegion != "staging-data" {
		t.Errorf("expected staging data_region, got %s", cfg.SharedMemory.DataRegion)
	}
	if cfg.SharedMemory.BarrierSegment != "SharedBarriers" {
		t.Errorf("unoverridden barrier_segment changed to %s", cfg.SharedMemory.BarrierSegment)
	}
}

func TestProductionDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
log:
  format: text
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("production should default to json logs, got %s", cfg.Log.Format)
	}
	if cfg.Metrics.ListenAddress == "" {
		t.Error("production should enable the metrics endpoint")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("WAYPOINT_TEST_REGION", "eu")

	tests := []struct {
		input string
		vars  map[string]string
		want  string
	}{
		{"${HOME}/data", map[string]string{"HOME": "/home/router"}, "/home/router/data"},
		{"/srv/${WAYPOINT_TEST_REGION}/nodes", nil, "/srv/eu/nodes"},
		{"${WAYPOINT_TEST_UNSET:-/fallback}", nil, "/fallback"},
		{"${WAYPOINT_TEST_UNSET}", nil, ""},
		{"/plain/path", nil, "/plain/path"},
	}

	for _, test := range tests {
		if got := expandVars(test.input, test.vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Dataset.Paths.Nodes = "/data/nodes"
		cfg.Dataset.Paths.Edges = "/data/edges"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"owned without nodes", func(c *Config) { c.Dataset.Paths.Nodes = "" }, "dataset.paths.nodes"},
		{"segment with slash", func(c *Config) { c.SharedMemory.BarrierSegment = "a/b" }, "barrier_segment"},
		{"same segment names", func(c *Config) { c.SharedMemory.DataRegion = "SharedBarriers" }, "must differ"},
		{"bad wait", func(c *Config) { c.SharedMemory.WaitForData = "soon" }, "wait_for_data"},
		{"bad compression", func(c *Config) { c.SharedMemory.Compression = "gzip" }, "compression"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero debounce", func(c *Config) { c.Datastore.Debounce = "0s" }, "debounce"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not mention %q", err, test.want)
			}
		})
	}
}

func TestValidate_SharedModeNeedsNoPaths(t *testing.T) {
	cfg := Default()
	cfg.Dataset.UseShared = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("shared mode without dataset paths rejected: %v", err)
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	wait, err := cfg.WaitForDataDuration()
	if err != nil || wait != 30*time.Second {
		t.Errorf("WaitForDataDuration = %v, %v; want 30s", wait, err)
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil || debounce != 2*time.Second {
		t.Errorf("DebounceDuration = %v, %v; want 2s", debounce, err)
	}
}
