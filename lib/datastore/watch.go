// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/waypoint/lib/clock"
	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Paths dataset.Paths

	// Debounce is the quiet period after the last change before the
	// dataset is reloaded.
	Debounce time.Duration

	// Optional.
	Clock  clock.Clock
	Logger *slog.Logger
}

// Watcher reloads the dataset files when they change.
type Watcher struct {
	paths    dataset.Paths
	files    map[string]bool
	debounce time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	notify   *fsnotify.Watcher
}

// NewWatcher starts watching the directories holding the dataset
// files. Directories rather than files are watched so replacement by
// rename is seen. Changes are not acted on until Run.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	watcher := &Watcher{
		paths:    config.Paths,
		files:    make(map[string]bool),
		debounce: config.Debounce,
		clock:    config.Clock,
		logger:   config.Logger,
		notify:   notify,
	}

	directories := make(map[string]bool)
	for _, file := range config.Paths.Files() {
		cleaned := filepath.Clean(file)
		watcher.files[cleaned] = true
		directories[filepath.Dir(cleaned)] = true
	}
	for directory := range directories {
		if err := notify.Add(directory); err != nil {
			notify.Close()
			return nil, fmt.Errorf("watching %s: %w", directory, err)
		}
	}
	return watcher, nil
}

// Run calls publish with the reloaded dataset after each settled
// change until ctx is cancelled. Load and publish failures are logged
// and the previous publication stays in place.
func (w *Watcher) Run(ctx context.Context, publish func(*dataset.Dataset) error) error {
	defer w.notify.Close()

	settled := make(chan struct{}, 1)
	var timer *clock.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("dataset file changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = w.clock.AfterFunc(w.debounce, func() {
					select {
					case settled <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-settled:
			w.reload(publish)
		}
	}
}

func (w *Watcher) reload(publish func(*dataset.Dataset) error) {
	loaded, err := dataset.Load(w.paths)
	if err != nil {
		w.logger.Error("reloading dataset failed, keeping the published generation", "error", err)
		return
	}
	if err := publish(loaded); err != nil {
		w.logger.Error("publishing reloaded dataset failed", "error", err)
	}
}
