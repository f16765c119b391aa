// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes waypoint-routed's Prometheus metrics.
//
// Every collector is registered on a per-instance registry rather than
// the global default, so tests can create as many instances as they
// like. A nil *Metrics is valid and records nothing.
package metrics
