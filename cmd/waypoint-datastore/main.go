// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// waypoint-datastore loads the dataset files and publishes them into
// the shared data region for waypoint-routed to serve.
//
// Each publication holds the coordination barrier's update side, so
// running servers finish their in-flight queries, see the new
// generation on their next query, and never observe a partial write.
// With --watch the files are republished whenever they change. With
// --clean the shared segments are removed instead, which is the
// recovery path after a process died while holding the barrier.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/config"
	"github.com/bureau-foundation/waypoint/lib/datastore"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/process"
	"github.com/bureau-foundation/waypoint/lib/service"
	"github.com/bureau-foundation/waypoint/lib/shm"
	"github.com/bureau-foundation/waypoint/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		watch       bool
		clean       bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("waypoint-datastore", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to waypoint.yaml (default: $WAYPOINT_CONFIG)")
	flagSet.BoolVar(&watch, "watch", false, "keep running and republish when the dataset files change")
	flagSet.BoolVar(&clean, "clean", false, "remove the shared barrier segment and data region, then exit")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("waypoint-datastore", version.Full())
		return nil
	}
	if clean && watch {
		return errors.New("--clean and --watch are mutually exclusive")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := service.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	segmentPath := shm.Path(cfg.SharedMemory.Directory, cfg.SharedMemory.BarrierSegment)
	regionPath := shm.Path(cfg.SharedMemory.Directory, cfg.SharedMemory.DataRegion)

	if clean {
		return removeSegments(logger, segmentPath, regionPath)
	}

	compression, err := dataset.ParseCompression(cfg.SharedMemory.Compression)
	if err != nil {
		return fmt.Errorf("shared_memory.compression: %w", err)
	}

	paths := cfg.DatasetFiles()
	loaded, err := dataset.Load(paths)
	if err != nil {
		return err
	}

	segment, err := shm.OpenSegment(segmentPath, barrier.SegmentSize)
	if err != nil {
		return fmt.Errorf("opening barrier segment: %w", err)
	}
	defer segment.Close()
	gate, err := barrier.OpenShared(segment.Bytes())
	if err != nil {
		return fmt.Errorf("attaching barrier in %s: %w", segmentPath, err)
	}

	region, err := shm.CreateRegion(regionPath)
	if err != nil {
		return fmt.Errorf("opening data region: %w", err)
	}
	defer region.Close()

	publisher, err := datastore.NewPublisher(datastore.PublisherConfig{
		Writer:      gate,
		Region:      region,
		Compression: compression,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if _, err := publisher.Publish(loaded); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return fmt.Errorf("datastore.debounce: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := datastore.NewWatcher(datastore.WatcherConfig{
		Paths:    paths,
		Debounce: debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	logger.Info("watching dataset files", "files", paths.Files(), "debounce", debounce)
	return watcher.Run(ctx, func(changed *dataset.Dataset) error {
		_, err := publisher.Publish(changed)
		return err
	})
}

func removeSegments(logger *slog.Logger, paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := shm.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("removed shared segment", "path", path)
	}
	return errors.Join(errs...)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
