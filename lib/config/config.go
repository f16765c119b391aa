// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the configuration shared by waypoint-routed and
// waypoint-datastore.
type Config struct {
	Environment Environment `yaml:"environment"`

	Dataset      DatasetConfig      `yaml:"dataset"`
	SharedMemory SharedMemoryConfig `yaml:"shared_memory"`
	Server       ServerConfig       `yaml:"server"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
	Datastore    DatastoreConfig    `yaml:"datastore"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the fields that may be overridden per
// environment. Empty strings and nil pointers leave the base value.
type ConfigOverrides struct {
	UseShared    *bool               `yaml:"use_shared,omitempty"`
	SharedMemory *SharedMemoryConfig `yaml:"shared_memory,omitempty"`
	Server       *ServerConfig       `yaml:"server,omitempty"`
	Metrics      *MetricsConfig      `yaml:"metrics,omitempty"`
	Log          *LogConfig          `yaml:"log,omitempty"`
}

// DatasetConfig selects where the routing dataset comes from.
type DatasetConfig struct {
	// UseShared selects the shared-memory facade. When false the
	// server loads Paths itself and runs without a barrier.
	UseShared bool `yaml:"use_shared"`

	// Paths names the dataset files. The server reads them in owned
	// mode; waypoint-datastore always reads them.
	Paths DatasetPaths `yaml:"paths"`
}

// DatasetPaths names the dataset files. Nodes and Edges are required.
type DatasetPaths struct {
	Nodes     string `yaml:"nodes"`
	Edges     string `yaml:"edges"`
	Names     string `yaml:"names"`
	Timestamp string `yaml:"timestamp"`
}

// SharedMemoryConfig names the shared segments.
type SharedMemoryConfig struct {
	// Directory holds the segment files. Default: /dev/shm
	Directory string `yaml:"directory"`

	// BarrierSegment is the coordination barrier's segment.
	// Default: SharedBarriers
	BarrierSegment string `yaml:"barrier_segment"`

	// DataRegion is the segment the datastore publishes into.
	// Default: waypoint-data
	DataRegion string `yaml:"data_region"`

	// WaitForData bounds how long the server waits at startup for
	// the datastore's first publication. Default: 30s
	WaitForData string `yaml:"wait_for_data"`

	// Compression applied to published payloads: none, zstd or lz4.
	// Default: zstd
	Compression string `yaml:"compression"`
}

// ServerConfig configures the query socket.
type ServerConfig struct {
	// SocketPath is the Unix socket the server listens on.
	// Default: /run/waypoint/routed.sock
	SocketPath string `yaml:"socket_path"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddress serves /metrics when non-empty, for example
	// "127.0.0.1:9464".
	ListenAddress string `yaml:"listen_address"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`

	// Format is json or text. Default: json
	Format string `yaml:"format"`
}

// DatastoreConfig configures waypoint-datastore.
type DatastoreConfig struct {
	// Debounce is the quiet period after a dataset file changes
	// before it is republished. Default: 2s
	Debounce string `yaml:"debounce"`
}

// Default returns the configuration every loaded file is merged over.
func Default() *Config {
	return &Config{
		Environment: Development,
		Dataset: DatasetConfig{
			UseShared: false,
		},
		SharedMemory: SharedMemoryConfig{
			Directory:      "/dev/shm",
			BarrierSegment: "SharedBarriers",
			DataRegion:     "waypoint-data",
			WaitForData:    "30s",
			Compression:    "zstd",
		},
		Server: ServerConfig{
			SocketPath: "/run/waypoint/routed.sock",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Datastore: DatastoreConfig{
			Debounce: "2s",
		},
	}
}

// Load loads the file named by WAYPOINT_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("WAYPOINT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WAYPOINT_CONFIG environment variable not set; " +
			"set it to the path of your waypoint.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over [Default], applies the
// matching environment section, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.expandVariables(filepath.Dir(absolute))

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Metrics: &MetricsConfig{ListenAddress: "127.0.0.1:9464"},
				Log:     &LogConfig{Level: "info", Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.UseShared != nil {
		c.Dataset.UseShared = *overrides.UseShared
	}

	if shared := overrides.SharedMemory; shared != nil {
		override(&c.SharedMemory.Directory, shared.Directory)
		override(&c.SharedMemory.BarrierSegment, shared.BarrierSegment)
		override(&c.SharedMemory.DataRegion, shared.DataRegion)
		override(&c.SharedMemory.WaitForData, shared.WaitForData)
		override(&c.SharedMemory.Compression, shared.Compression)
	}

	if overrides.Server != nil {
		override(&c.Server.SocketPath, overrides.Server.SocketPath)
	}

	if overrides.Metrics != nil {
		override(&c.Metrics.ListenAddress, overrides.Metrics.ListenAddress)
	}

	if overrides.Log != nil {
		override(&c.Log.Level, overrides.Log.Level)
		override(&c.Log.Format, overrides.Log.Format)
	}
}

func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}

func (c *Config) expandVariables(configDirectory string) {
	vars := map[string]string{
		"HOME":          os.Getenv("HOME"),
		"WAYPOINT_DATA": configDirectory,
	}

	for _, field := range []*string{
		&c.Dataset.Paths.Nodes,
		&c.Dataset.Paths.Edges,
		&c.Dataset.Paths.Names,
		&c.Dataset.Paths.Timestamp,
		&c.SharedMemory.Directory,
		&c.Server.SocketPath,
	} {
		*field = expandVars(*field, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Values in vars take
// precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// DatasetFiles returns the configured dataset files.
func (c *Config) DatasetFiles() dataset.Paths {
	return dataset.Paths{
		Nodes:     c.Dataset.Paths.Nodes,
		Edges:     c.Dataset.Paths.Edges,
		Names:     c.Dataset.Paths.Names,
		Timestamp: c.Dataset.Paths.Timestamp,
	}
}

// WaitForDataDuration parses SharedMemory.WaitForData.
func (c *Config) WaitForDataDuration() (time.Duration, error) {
	return time.ParseDuration(c.SharedMemory.WaitForData)
}

// DebounceDuration parses Datastore.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(c.Datastore.Debounce)
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if !c.Dataset.UseShared {
		if c.Dataset.Paths.Nodes == "" {
			errs = append(errs, errors.New("dataset.paths.nodes is required when dataset.use_shared is false"))
		}
		if c.Dataset.Paths.Edges == "" {
			errs = append(errs, errors.New("dataset.paths.edges is required when dataset.use_shared is false"))
		}
	}

	if c.SharedMemory.Directory == "" {
		errs = append(errs, errors.New("shared_memory.directory is required"))
	}
	for key, name := range map[string]string{
		"shared_memory.barrier_segment": c.SharedMemory.BarrierSegment,
		"shared_memory.data_region":     c.SharedMemory.DataRegion,
	} {
		if name == "" || filepath.Base(name) != name {
			errs = append(errs, fmt.Errorf("%s must be a plain file name, got %q", key, name))
		}
	}
	if c.SharedMemory.BarrierSegment != "" && c.SharedMemory.BarrierSegment == c.SharedMemory.DataRegion {
		errs = append(errs, errors.New("shared_memory.barrier_segment and shared_memory.data_region must differ"))
	}
	if wait, err := c.WaitForDataDuration(); err != nil {
		errs = append(errs, fmt.Errorf("shared_memory.wait_for_data: %w", err))
	} else if wait < 0 {
		errs = append(errs, errors.New("shared_memory.wait_for_data must not be negative"))
	}
	compressions := []string{"none", "zstd", "lz4"}
	if !slices.Contains(compressions, c.SharedMemory.Compression) {
		errs = append(errs, fmt.Errorf("shared_memory.compression must be one of: %v", compressions))
	}

	if c.Server.SocketPath == "" {
		errs = append(errs, errors.New("server.socket_path is required"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"json", "text"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if debounce, err := c.DebounceDuration(); err != nil {
		errs = append(errs, fmt.Errorf("datastore.debounce: %w", err))
	} else if debounce <= 0 {
		errs = append(errs, errors.New("datastore.debounce must be positive"))
	}

	return errors.Join(errs...)
}
