// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// waypoint-routed answers routing queries on a Unix socket.
//
// The dataset is either loaded from files into the process (owned
// mode) or attached from the shared region that waypoint-datastore
// publishes into (shared mode, dataset.use_shared). In shared mode
// every query is admitted through the coordination barrier so the
// datastore can replace the dataset between queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/waypoint/lib/config"
	"github.com/bureau-foundation/waypoint/lib/dispatch"
	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/metrics"
	"github.com/bureau-foundation/waypoint/lib/plugin"
	"github.com/bureau-foundation/waypoint/lib/plugins"
	"github.com/bureau-foundation/waypoint/lib/process"
	"github.com/bureau-foundation/waypoint/lib/service"
	"github.com/bureau-foundation/waypoint/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("waypoint-routed", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to waypoint.yaml (default: $WAYPOINT_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("waypoint-routed", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := service.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	waitForData, err := cfg.WaitForDataDuration()
	if err != nil {
		return fmt.Errorf("shared_memory.wait_for_data: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("waypoint-routed starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"shared", cfg.Dataset.UseShared,
	)

	instance, err := facade.Bootstrap(ctx, facade.Options{
		UseSharedDataset: cfg.Dataset.UseShared,
		Paths:            cfg.DatasetFiles(),
		SharedMemory: facade.SharedMemoryOptions{
			Directory:      cfg.SharedMemory.Directory,
			BarrierSegment: cfg.SharedMemory.BarrierSegment,
			DataRegion:     cfg.SharedMemory.DataRegion,
			WaitForData:    waitForData,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer closeAndLog(logger, "shared dataset", instance)

	registry := plugin.NewRegistry(logger)
	plugins.RegisterAll(registry, plugins.Options{Logger: logger})
	defer func() {
		if err := registry.Teardown(); err != nil {
			logger.Error("tearing down plugins", "error", err)
		}
	}()

	recorder := metrics.New()
	recorder.ObserveBarrier(instance.Observer)
	if shared, ok := instance.Facade.(*facade.Shared); ok {
		recorder.ObserveGeneration(shared.Generation)
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Registry: registry,
		Facade:   instance.Facade,
		Barrier:  instance.Barrier,
		Metrics:  recorder,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Server.SocketPath), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	socketServer := service.NewSocketServer(cfg.Server.SocketPath, dispatcher, logger)
	group.Go(func() error { return socketServer.Serve(groupCtx) })

	if cfg.Metrics.ListenAddress != "" {
		metricsServer := service.NewMetricsServer(cfg.Metrics.ListenAddress, recorder.Handler(), logger)
		group.Go(func() error { return metricsServer.Serve(groupCtx) })
	}

	nodes, edges := instance.Size()
	logger.Info("waypoint-routed running",
		"socket", cfg.Server.SocketPath,
		"services", registry.Services(),
		"nodes", nodes,
		"edges", edges,
	)

	err = group.Wait()
	logger.Info("waypoint-routed stopped")
	return err
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

func closeAndLog(logger *slog.Logger, what string, closer io.Closer) {
	if err := closer.Close(); err != nil {
		logger.Error("closing "+what, "error", err)
	}
}
