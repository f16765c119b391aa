// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger creates the standard waypoint logger writing to w. level
// is a slog level name ("debug", "info", "warn", "error"); format is
// "json" or "text". The logger also becomes the slog default so
// library code logging through slog gets the same handler.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	options := &slog.HandlerOptions{Level: parsed}

	var handler slog.Handler
	switch format {
	case "json", "":
		handler = slog.NewJSONHandler(w, options)
	case "text":
		handler = slog.NewTextHandler(w, options)
	default:
		return nil, fmt.Errorf("log format %q: want json or text", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
