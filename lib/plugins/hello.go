// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"context"

	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// HelloBody echoes what the server understood of a request.
type HelloBody struct {
	Message  string         `cbor:"message" json:"message"`
	Request  plugin.Request `cbor:"request" json:"request"`
	Services []string       `cbor:"services" json:"services"`
	Nodes    int            `cbor:"nodes" json:"nodes"`
	Edges    int            `cbor:"edges" json:"edges"`
}

// Hello answers "hello" with the parsed request and the services the
// server offers.
type Hello struct {
	services func() []string
}

// NewHello returns a Hello that lists the names reported by services.
func NewHello(services func() []string) *Hello {
	return &Hello{services: services}
}

func (*Hello) ServiceName() string { return "hello" }

func (h *Hello) Handle(_ context.Context, data facade.Facade, request *plugin.Request, reply *plugin.Reply) {
	body := HelloBody{
		Message: "Hello World",
		Request: *request,
		Nodes:   data.NodeCount(),
		Edges:   data.EdgeCount(),
	}
	if h.services != nil {
		body.Services = h.services()
	}
	reply.Body = body
}
