// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/waypoint/lib/codec"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// Dispatcher answers decoded requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, request *plugin.Request) plugin.Reply
}

// WireReply is the reply envelope as sent on the socket.
type WireReply struct {
	RequestID string           `cbor:"request_id"`
	Status    plugin.Status    `cbor:"status"`
	Body      codec.RawMessage `cbor:"body,omitempty"`
}

// Decode unmarshals the reply body into target.
func (r *WireReply) Decode(target any) error {
	if len(r.Body) == 0 {
		return errors.New("reply has no body")
	}
	return codec.Unmarshal(r.Body, target)
}

// outgoingReply is WireReply before the body is encoded.
type outgoingReply struct {
	RequestID string        `cbor:"request_id"`
	Status    plugin.Status `cbor:"status"`
	Body      any           `cbor:"body,omitempty"`
}

// readTimeout is how long the server waits for a request after the
// client connects.
const readTimeout = 30 * time.Second

// writeTimeout is how long the server waits for the reply to be
// written.
const writeTimeout = 10 * time.Second

// maxRequestSize bounds a single encoded request. A viaroute request
// with a few hundred coordinates and hints is well under this.
const maxRequestSize = 1024 * 1024

// SocketServer serves requests on a Unix socket. Each connection
// carries exactly one request and one reply.
type SocketServer struct {
	socketPath string
	dispatcher Dispatcher
	logger     *slog.Logger

	// activeConnections tracks in-flight connections so Serve can
	// drain them on shutdown.
	activeConnections sync.WaitGroup

	ready chan struct{}
}

// NewSocketServer creates a server that will listen on socketPath and
// answer with dispatcher.
func NewSocketServer(socketPath string, dispatcher Dispatcher, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		dispatcher: dispatcher,
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for in-flight requests to finish.
//
// A stale socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("socket server stopped", "path", s.socketPath)
	return nil
}

// handleConnection processes one request-reply cycle.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request plugin.Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			// Connected and sent nothing.
			return
		}
		logger.Debug("undecodable request", "error", err)
		s.writeReply(conn, logger, requestID, plugin.StockReply(plugin.StatusBadRequest))
		return
	}

	reply := s.dispatcher.Dispatch(ctx, &request)
	if reply.Status != plugin.StatusOK {
		logger.Debug("request failed",
			"service", request.Service,
			"status", int(reply.Status),
		)
	}
	s.writeReply(conn, logger, requestID, reply)
}

// writeReply sends the reply. Write failures are logged at debug
// level; the connection is closing regardless.
func (s *SocketServer) writeReply(conn net.Conn, logger *slog.Logger, requestID string, reply plugin.Reply) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	encoded, err := codec.Marshal(outgoingReply{
		RequestID: requestID,
		Status:    reply.Status,
		Body:      reply.Body,
	})
	if err != nil {
		logger.Error("encoding reply", "status", int(reply.Status), "error", err)
		failure := plugin.StockReply(plugin.StatusInternalServerError)
		encoded, err = codec.Marshal(outgoingReply{
			RequestID: requestID,
			Status:    failure.Status,
			Body:      failure.Body,
		})
		if err != nil {
			return
		}
	}
	if _, err := conn.Write(encoded); err != nil {
		logger.Debug("failed to write reply", "error", err)
	}
}
