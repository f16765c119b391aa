// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch routes parsed requests to their handlers.
//
// The dispatcher is the only place that admits queries through the
// barrier. A request for an unknown service is answered with
// [plugin.StatusBadRequest] without touching the barrier or any
// handler. A known service's handler runs with the reply preset to
// [plugin.StatusOK] and, when a barrier is configured, between
// BeginQuery and EndQuery, so the dataset cannot be replaced while the
// handler reads it. Without a barrier (an owned dataset) the handler
// runs directly.
//
// Concurrent Dispatch calls are independent; the dispatcher holds no
// per-request state.
package dispatch
