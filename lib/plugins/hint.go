// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"encoding/base64"
	"fmt"

	"github.com/bureau-foundation/waypoint/lib/codec"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/facade"
)

// maxHintLength bounds the decoded size of a hint.
const maxHintLength = 256

// EncodeHint renders a snapped position as an opaque URL-safe string.
// A client that sends it back with the dataset checksum saves the
// server a nearest-segment search.
func EncodeHint(phantom dataset.PhantomNode) (string, error) {
	encoded, err := codec.Marshal(phantom)
	if err != nil {
		return "", fmt.Errorf("encoding hint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(encoded), nil
}

// DecodeHint parses a string produced by EncodeHint.
func DecodeHint(hint string) (dataset.PhantomNode, error) {
	if base64.RawURLEncoding.DecodedLen(len(hint)) > maxHintLength {
		return dataset.PhantomNode{}, fmt.Errorf("hint of %d characters is too long", len(hint))
	}
	encoded, err := base64.RawURLEncoding.DecodeString(hint)
	if err != nil {
		return dataset.PhantomNode{}, fmt.Errorf("decoding hint: %w", err)
	}
	var phantom dataset.PhantomNode
	if err := codec.Unmarshal(encoded, &phantom); err != nil {
		return dataset.PhantomNode{}, fmt.Errorf("decoding hint: %w", err)
	}
	return phantom, nil
}

// snap resolves one request coordinate to a position on the road
// network. A hint is used when the request's checksum matches the
// served dataset and the hinted edge exists; otherwise the nearest
// segment is searched for.
func snap(data facade.Facade, query dataset.Coordinate, hint string, hintsValid bool) (dataset.PhantomNode, bool) {
	if hintsValid && hint != "" {
		if hinted, err := DecodeHint(hint); err == nil {
			if phantom, ok := data.PhantomOnEdge(query, hinted.Edge); ok {
				return phantom, true
			}
		}
	}
	phantoms := data.NearestPhantomNodes(query, 1)
	if len(phantoms) == 0 {
		return dataset.PhantomNode{}, false
	}
	return phantoms[0], true
}
