// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"context"

	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// LocateBody is the reply to "locate".
type LocateBody struct {
	Status           int      `cbor:"status" json:"status"`
	MappedCoordinate Position `cbor:"mapped_coordinate,omitempty" json:"mapped_coordinate,omitempty"`
}

// Locate answers "locate": the graph node nearest to one coordinate.
type Locate struct{}

func (Locate) ServiceName() string { return "locate" }

func (Locate) Handle(_ context.Context, data facade.Facade, request *plugin.Request, reply *plugin.Reply) {
	query, ok := singleCoordinate(request)
	if !ok {
		badRequest(reply)
		return
	}

	node, found := data.LocateClosestNode(query)
	if !found {
		reply.Body = LocateBody{Status: ResultNotFound}
		return
	}
	reply.Body = LocateBody{
		Status:           ResultFound,
		MappedCoordinate: position(data.Coordinate(node)),
	}
}
