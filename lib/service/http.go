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
	"net/http"
	"time"
)

// metricsShutdownTimeout bounds how long a scrape in progress may
// delay shutdown.
const metricsShutdownTimeout = 5 * time.Second

// MetricsServer serves /metrics and /healthz on a TCP address. It
// follows the SocketServer lifecycle: Serve blocks until ctx is
// cancelled.
type MetricsServer struct {
	address string
	mux     *http.ServeMux
	logger  *slog.Logger

	// ready is closed once the listener is bound; addr is set before.
	ready chan struct{}
	addr  net.Addr
}

// NewMetricsServer returns a server exposing metrics (normally a
// promhttp handler) at /metrics on address.
func NewMetricsServer(address string, metrics http.Handler, logger *slog.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok\n")
	})
	return &MetricsServer{
		address: address,
		mux:     mux,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the server is accepting connections.
func (s *MetricsServer) Ready() <-chan struct{} { return s.ready }

// Addr is the bound address. Only valid after Ready is closed.
func (s *MetricsServer) Addr() net.Addr { return s.addr }

// Serve listens and serves until ctx is cancelled.
func (s *MetricsServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	failed := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()
	s.logger.Info("metrics server listening", "address", s.addr.String())

	select {
	case err := <-failed:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	s.logger.Info("metrics server stopped")
	return nil
}
