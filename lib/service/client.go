// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/waypoint/lib/codec"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// replyReadTimeout is how long the client waits for a reply after
// sending its request. It covers the server's read and write
// timeouts plus handler time, including a wait at the barrier.
const replyReadTimeout = 45 * time.Second

// maxReplySize bounds a single reply. Geometry for long routes is the
// largest body.
const maxReplySize = 16 * 1024 * 1024

// Client sends requests to a waypoint-routed socket. Each Query opens
// its own connection.
type Client struct {
	socketPath string
}

// NewClient returns a client for the server listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Query sends request and returns the server's reply. A non-OK status
// is not an error: it is returned in the reply for the caller to
// inspect. Errors are connection and encoding failures.
func (c *Client) Query(ctx context.Context, request *plugin.Request) (*WireReply, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing %q request: %w", request.Service, err)
	}

	// Half-close so the server's read side sees EOF.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if _, ok := ctx.Deadline(); !ok {
		conn.SetReadDeadline(time.Now().Add(replyReadTimeout))
	}
	var reply WireReply
	if err := codec.NewDecoder(io.LimitReader(conn, maxReplySize)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("reading %q reply: %w", request.Service, err)
	}
	return &reply, nil
}
