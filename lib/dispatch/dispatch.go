// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/waypoint/lib/barrier"
	"github.com/bureau-foundation/waypoint/lib/clock"
	"github.com/bureau-foundation/waypoint/lib/facade"
	"github.com/bureau-foundation/waypoint/lib/metrics"
	"github.com/bureau-foundation/waypoint/lib/plugin"
)

// Config holds the dispatcher's collaborators.
type Config struct {
	Registry *plugin.Registry
	Facade   facade.Facade

	// Barrier guards a shared dataset. Nil for an owned dataset.
	Barrier barrier.Barrier

	// Optional.
	Metrics *metrics.Metrics
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Dispatcher answers requests with the handlers in a registry.
type Dispatcher struct {
	registry *plugin.Registry
	facade   facade.Facade
	barrier  barrier.Barrier
	metrics  *metrics.Metrics
	clock    clock.Clock
	logger   *slog.Logger
}

// New returns a dispatcher. Registry and Facade are required.
func New(config Config) (*Dispatcher, error) {
	if config.Registry == nil {
		return nil, errors.New("dispatch: Registry is required")
	}
	if config.Facade == nil {
		return nil, errors.New("dispatch: Facade is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Dispatcher{
		registry: config.Registry,
		facade:   config.Facade,
		barrier:  config.Barrier,
		metrics:  config.Metrics,
		clock:    config.Clock,
		logger:   config.Logger,
	}, nil
}

// Dispatch answers request. The returned reply is exactly what the
// handler left in it, or the stock BadRequest reply when no handler is
// registered for request.Service.
func (d *Dispatcher) Dispatch(ctx context.Context, request *plugin.Request) plugin.Reply {
	start := d.clock.Now()

	handler, ok := d.registry.Resolve(request.Service)
	if !ok {
		d.logger.Debug("request for unknown service", "service", request.Service)
		reply := plugin.StockReply(plugin.StatusBadRequest)
		d.metrics.ObserveRequest(request.Service, false, reply.Status, clock.Since(d.clock, start))
		return reply
	}

	reply := plugin.Reply{Status: plugin.StatusOK}
	d.run(ctx, handler, request, &reply)

	elapsed := clock.Since(d.clock, start)
	d.metrics.ObserveRequest(request.Service, true, reply.Status, elapsed)
	d.logger.Debug("request handled",
		"service", request.Service,
		"status", int(reply.Status),
		"elapsed", elapsed,
	)
	return reply
}

// run calls the handler inside the barrier. EndQuery is deferred so a
// panicking handler still releases its admission before the panic
// propagates.
func (d *Dispatcher) run(ctx context.Context, handler plugin.Handler, request *plugin.Request, reply *plugin.Reply) {
	if d.barrier != nil {
		admissionStart := d.clock.Now()
		d.barrier.BeginQuery()
		defer d.barrier.EndQuery()
		d.metrics.ObserveAdmission(clock.Since(d.clock, admissionStart))
	}
	handler.Handle(ctx, d.facade, request, reply)
}
