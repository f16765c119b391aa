// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the transport around the dispatcher: a
// Unix socket server speaking one CBOR request and one CBOR reply per
// connection, the matching client, an HTTP server for the metrics
// endpoint, and the standard logger constructor.
//
// # Wire protocol
//
// The client connects, writes one [plugin.Request] as a CBOR map and
// half-closes. The server replies with one [WireReply] and closes the
// connection. CBOR is self-delimiting, so no framing is needed. A
// request that cannot be decoded is answered with the stock
// BadRequest reply without reaching the dispatcher.
//
// Every reply carries the request id the server logged the request
// under, so client-side failures can be matched to server logs.
package service
