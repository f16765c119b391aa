// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"log/slog"

	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// Result statuses reported inside reply bodies.
const (
	ResultFound    = 0
	ResultNotFound = 207
)

// Position is a coordinate in decimal degrees, latitude first.
type Position [2]float64

func position(c dataset.Coordinate) Position {
	lat, lon := c.Degrees()
	return Position{lat, lon}
}

// Options configures the services registered by RegisterAll.
type Options struct {
	// Engine answers viaroute. Nil leaves viaroute registered but
	// failing every request with an internal error.
	Engine RouteEngine
	Logger *slog.Logger
}

// RegisterAll registers every service in registry.
func RegisterAll(registry *plugin.Registry, options Options) {
	registry.Register(NewHello(registry.Services))
	registry.Register(Locate{})
	registry.Register(Nearest{})
	registry.Register(Timestamp{})
	registry.Register(NewViaRoute(options.Engine, options.Logger))
}

// singleCoordinate returns the request's only coordinate, or false if
// there is not exactly one valid coordinate.
func singleCoordinate(request *plugin.Request) (dataset.Coordinate, bool) {
	if len(request.Coordinates) != 1 || !request.Coordinates[0].Valid() {
		return dataset.Coordinate{}, false
	}
	return request.Coordinates[0], true
}

func badRequest(reply *plugin.Reply) {
	*reply = plugin.StockReply(plugin.StatusBadRequest)
}
