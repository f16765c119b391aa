// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/waypoint/lib/facade"
)

// Handler answers requests for one service.
//
// Handle runs while the dataset is held stable for it: it may read the
// facade freely but must not retain anything derived from it past
// return. The reply arrives with Status preset to StatusOK; a handler
// only needs to touch Status to report a failure. Handle is called
// concurrently and must not mutate shared state without its own
// synchronization.
//
// A handler that holds resources also implements io.Closer. The
// registry closes it when it is replaced or torn down.
type Handler interface {
	ServiceName() string
	Handle(ctx context.Context, data facade.Facade, request *Request, reply *Reply)
}

// Registry maps service names to their handlers.
type Registry struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register takes ownership of handler under its ServiceName. A handler
// already registered under that name is closed and replaced. Close
// errors from the replaced handler are logged, not returned.
// Registering the handler already held under its name changes nothing.
func (r *Registry) Register(handler Handler) {
	name := handler.ServiceName()
	if previous, exists := r.handlers[name]; exists && previous != handler {
		if err := closeHandler(previous); err != nil {
			r.logger.Error("closing replaced plugin", "service", name, "error", err)
		}
	}
	r.handlers[name] = handler
	r.logger.Info("loaded plugin", "service", name)
}

// Resolve returns the handler registered for name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	handler, ok := r.handlers[name]
	return handler, ok
}

// Services returns the registered service names in sorted order.
func (r *Registry) Services() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Teardown closes every registered handler once and empties the
// registry.
func (r *Registry) Teardown() error {
	var errs []error
	for _, name := range r.Services() {
		if err := closeHandler(r.handlers[name]); err != nil {
			errs = append(errs, fmt.Errorf("closing plugin %q: %w", name, err))
		}
		delete(r.handlers, name)
	}
	return errors.Join(errs...)
}

func closeHandler(handler Handler) error {
	if closer, ok := handler.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
