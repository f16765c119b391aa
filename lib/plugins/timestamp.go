// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"context"

	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// TimestampBody is the reply to "timestamp".
type TimestampBody struct {
	Status    int    `cbor:"status" json:"status"`
	Timestamp string `cbor:"timestamp" json:"timestamp"`
	Checksum  uint32 `cbor:"checksum" json:"checksum"`
}

// Timestamp answers "timestamp": when the served dataset was built and
// the checksum hints must carry to be honored.
type Timestamp struct{}

func (Timestamp) ServiceName() string { return "timestamp" }

func (Timestamp) Handle(_ context.Context, data facade.Facade, _ *plugin.Request, reply *plugin.Reply) {
	reply.Body = TimestampBody{
		Status:    ResultFound,
		Timestamp: data.Timestamp(),
		Checksum:  data.Checksum(),
	}
}
