// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// ErrNoRoute is returned by a RouteEngine when the snapped positions
// are not connected.
var ErrNoRoute = errors.New("no route between the given positions")

// RouteEngine searches for routes over a dataset. It is called while
// the dataset is held stable and must not retain the facade.
type RouteEngine interface {
	Route(ctx context.Context, data facade.Facade, via []dataset.PhantomNode, options RouteOptions) (Route, error)
}

// RouteOptions carries the request parameters that shape a route.
type RouteOptions struct {
	Alternative  bool
	Instructions bool
	// Zoom is the map zoom level the geometry will be drawn at.
	Zoom     int
	Language string
}

// Route is a path found by a RouteEngine.
type Route struct {
	// Distance in meters.
	Distance float64
	// Duration in seconds.
	Duration float64
	// Path is the route geometry from the first to the last position.
	Path         []dataset.Coordinate
	Instructions []Instruction
	// Alternative is a second route, present only when requested and
	// found.
	Alternative *Route
}

// Instruction is one turn-by-turn step.
type Instruction struct {
	Maneuver string `cbor:"maneuver" json:"maneuver"`
	Name     string `cbor:"name" json:"name"`
	// Distance in whole meters.
	Distance int `cbor:"distance" json:"distance"`
	// Duration in whole seconds.
	Duration int `cbor:"duration" json:"duration"`
	// Position indexes the route geometry.
	Position int `cbor:"position" json:"position"`
}

// RouteBody is the reply to "viaroute".
type RouteBody struct {
	Status        int    `cbor:"status" json:"status"`
	StatusMessage string `cbor:"status_message" json:"status_message"`

	Geometry     string        `cbor:"route_geometry,omitempty" json:"route_geometry,omitempty"`
	Instructions []Instruction `cbor:"route_instructions,omitempty" json:"route_instructions,omitempty"`
	Summary      *RouteSummary `cbor:"route_summary,omitempty" json:"route_summary,omitempty"`

	AlternativeGeometry     string        `cbor:"alternative_geometry,omitempty" json:"alternative_geometry,omitempty"`
	AlternativeInstructions []Instruction `cbor:"alternative_instructions,omitempty" json:"alternative_instructions,omitempty"`
	AlternativeSummary      *RouteSummary `cbor:"alternative_summary,omitempty" json:"alternative_summary,omitempty"`

	ViaPoints []Position `cbor:"via_points,omitempty" json:"via_points,omitempty"`
	HintData  *HintData  `cbor:"hint_data,omitempty" json:"hint_data,omitempty"`
}

// RouteSummary describes a route in whole meters and seconds.
type RouteSummary struct {
	TotalDistance int    `cbor:"total_distance" json:"total_distance"`
	TotalTime     int    `cbor:"total_time" json:"total_time"`
	StartPoint    string `cbor:"start_point" json:"start_point"`
	EndPoint      string `cbor:"end_point" json:"end_point"`
}

// HintData lets a client skip snapping on its next request for the
// same positions.
type HintData struct {
	Checksum  uint32   `cbor:"checksum" json:"checksum"`
	Locations []string `cbor:"locations" json:"locations"`
}

const (
	messageRouteFound  = "Found route between points"
	messageNoRoute     = "Cannot find route between points"
	messageUnsnappable = "Cannot find a road near one of the points"
)

// ViaRoute answers "viaroute": a route through two or more
// coordinates, in order.
type ViaRoute struct {
	engine RouteEngine
	logger *slog.Logger
}

// NewViaRoute returns a ViaRoute that searches with engine.
func NewViaRoute(engine RouteEngine, logger *slog.Logger) *ViaRoute {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViaRoute{engine: engine, logger: logger}
}

func (*ViaRoute) ServiceName() string { return "viaroute" }

func (v *ViaRoute) Handle(ctx context.Context, data facade.Facade, request *plugin.Request, reply *plugin.Reply) {
	if len(request.Coordinates) < 2 {
		badRequest(reply)
		return
	}
	for _, coordinate := range request.Coordinates {
		if !coordinate.Valid() {
			badRequest(reply)
			return
		}
	}
	if v.engine == nil {
		v.logger.Error("viaroute requested but no route engine is configured")
		*reply = plugin.StockReply(plugin.StatusInternalServerError)
		return
	}

	checksum := data.Checksum()
	hintsValid := request.Checksum == checksum
	via := make([]dataset.PhantomNode, 0, len(request.Coordinates))
	for index, coordinate := range request.Coordinates {
		var hint string
		if index < len(request.Hints) {
			hint = request.Hints[index]
		}
		phantom, ok := snap(data, coordinate, hint, hintsValid)
		if !ok {
			reply.Body = RouteBody{Status: ResultNotFound, StatusMessage: messageUnsnappable}
			return
		}
		via = append(via, phantom)
	}

	hints := &HintData{Checksum: checksum}
	body := RouteBody{HintData: hints}
	for _, phantom := range via {
		hint, err := EncodeHint(phantom)
		if err != nil {
			v.logger.Error("encoding viaroute hint", "error", err)
			*reply = plugin.StockReply(plugin.StatusInternalServerError)
			return
		}
		hints.Locations = append(hints.Locations, hint)
		body.ViaPoints = append(body.ViaPoints, position(phantom.Location))
	}

	route, err := v.engine.Route(ctx, data, via, RouteOptions{
		Alternative:  request.Alternative,
		Instructions: request.Instructions,
		Zoom:         request.Zoom,
		Language:     request.Language,
	})
	if errors.Is(err, ErrNoRoute) {
		body.Status = ResultNotFound
		body.StatusMessage = messageNoRoute
		reply.Body = body
		return
	}
	if err != nil {
		v.logger.Error("route search failed", "coordinates", len(via), "error", err)
		*reply = plugin.StockReply(plugin.StatusInternalServerError)
		return
	}

	startName := data.Name(via[0].NameID)
	endName := data.Name(via[len(via)-1].NameID)

	body.Status = ResultFound
	body.StatusMessage = messageRouteFound
	body.Summary = summarize(route, startName, endName)
	if request.Geometry {
		body.Geometry = EncodePolyline(route.Path)
	}
	if request.Instructions {
		body.Instructions = route.Instructions
	}
	if request.Alternative && route.Alternative != nil {
		body.AlternativeSummary = summarize(*route.Alternative, startName, endName)
		if request.Geometry {
			body.AlternativeGeometry = EncodePolyline(route.Alternative.Path)
		}
		if request.Instructions {
			body.AlternativeInstructions = route.Alternative.Instructions
		}
	}
	reply.Body = body
}

func summarize(route Route, startName, endName string) *RouteSummary {
	return &RouteSummary{
		TotalDistance: int(math.Round(route.Distance)),
		TotalTime:     int(math.Round(route.Duration)),
		StartPoint:    startName,
		EndPoint:      endName,
	}
}
