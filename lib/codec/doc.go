// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides waypoint's standard CBOR configuration.
//
// CBOR is used everywhere waypoint crosses a process boundary: the
// query socket protocol, dataset files on disk, the payload of the
// shared data region, and the opaque hints handed back to clients.
// JSON appears only in waypoint-query's human-facing output.
//
// Buffer-oriented:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Stream-oriented (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types that are also rendered as JSON by waypoint-query carry `json`
// tags, which fxamacker/cbor reads as a fallback. Purely internal
// types (dataset files, region headers, hints) carry `cbor` tags.
package codec
