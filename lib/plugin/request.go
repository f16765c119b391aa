// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"net/http"

	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// Request is a parsed routing query. Transport layers decode it from
// the wire; handlers read the fields relevant to their service and
// ignore the rest.
type Request struct {
	// Service names the handler that answers the request.
	Service string `cbor:"service" json:"service"`

	Coordinates []dataset.Coordinate `cbor:"coordinates,omitempty" json:"coordinates,omitempty"`

	// Hints carry the snapped location of each coordinate from a
	// previous reply. Hints[i] belongs to Coordinates[i]; an empty
	// string means no hint.
	Hints []string `cbor:"hints,omitempty" json:"hints,omitempty"`

	// Checksum identifies the dataset the hints were issued against.
	Checksum uint32 `cbor:"checksum,omitempty" json:"checksum,omitempty"`

	Number       int               `cbor:"number,omitempty" json:"number,omitempty"`
	Zoom         int               `cbor:"z,omitempty" json:"z,omitempty"`
	Alternative  bool              `cbor:"alt,omitempty" json:"alt,omitempty"`
	Instructions bool              `cbor:"instructions,omitempty" json:"instructions,omitempty"`
	Geometry     bool              `cbor:"geometry,omitempty" json:"geometry,omitempty"`
	Language     string            `cbor:"language,omitempty" json:"language,omitempty"`
	Options      map[string]string `cbor:"options,omitempty" json:"options,omitempty"`
}

// Status is the outcome of a request at the transport level. Handler
// specific outcomes (such as "no route found") are reported inside the
// reply body.
type Status int

const (
	StatusOK                  Status = http.StatusOK
	StatusBadRequest          Status = http.StatusBadRequest
	StatusInternalServerError Status = http.StatusInternalServerError
)

// String returns the reason phrase for the status.
func (s Status) String() string {
	if text := http.StatusText(int(s)); text != "" {
		return text
	}
	return "Unknown"
}

// Reply is what a handler produces for a request.
type Reply struct {
	Status Status `cbor:"status" json:"status"`
	Body   any    `cbor:"body,omitempty" json:"body,omitempty"`
}

// StockReply returns the canned reply for a status: the status with
// its reason phrase as the body.
func StockReply(status Status) Reply {
	return Reply{Status: status, Body: status.String()}
}
