// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"context"
	"math"

	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// MaxNearest caps the number of candidates "nearest" returns.
const MaxNearest = 100

// NearestBody is the reply to "nearest". The first candidate is also
// reported at the top level.
type NearestBody struct {
	Status           int                `cbor:"status" json:"status"`
	MappedCoordinate Position           `cbor:"mapped_coordinate,omitempty" json:"mapped_coordinate,omitempty"`
	Name             string             `cbor:"name,omitempty" json:"name,omitempty"`
	Results          []NearestCandidate `cbor:"results,omitempty" json:"results,omitempty"`
}

// NearestCandidate is one road segment near the query.
type NearestCandidate struct {
	MappedCoordinate Position `cbor:"mapped_coordinate" json:"mapped_coordinate"`
	Name             string   `cbor:"name" json:"name"`
	// Distance from the query in whole meters.
	Distance int    `cbor:"distance" json:"distance"`
	Hint     string `cbor:"hint" json:"hint"`
}

// Nearest answers "nearest": the road segments closest to one
// coordinate. Request.Number selects how many, default 1 and at most
// MaxNearest.
type Nearest struct{}

func (Nearest) ServiceName() string { return "nearest" }

func (Nearest) Handle(_ context.Context, data facade.Facade, request *plugin.Request, reply *plugin.Reply) {
	query, ok := singleCoordinate(request)
	if !ok || request.Number < 0 {
		badRequest(reply)
		return
	}
	count := request.Number
	if count == 0 {
		count = 1
	}
	count = min(count, MaxNearest)

	phantoms := data.NearestPhantomNodes(query, count)
	if len(phantoms) == 0 {
		reply.Body = NearestBody{Status: ResultNotFound}
		return
	}

	body := NearestBody{Status: ResultFound}
	for _, phantom := range phantoms {
		hint, err := EncodeHint(phantom)
		if err != nil {
			*reply = plugin.StockReply(plugin.StatusInternalServerError)
			return
		}
		body.Results = append(body.Results, NearestCandidate{
			MappedCoordinate: position(phantom.Location),
			Name:             data.Name(phantom.NameID),
			Distance:         int(math.Round(phantom.Distance)),
			Hint:             hint,
		})
	}
	body.MappedCoordinate = body.Results[0].MappedCoordinate
	body.Name = body.Results[0].Name
	reply.Body = body
}
