// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for waypoint packages.
//
// [SocketDir] creates a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes and so cannot live under a
// deeply nested t.TempDir().
//
// [RequireReceive], [RequireClosed] and [RequireEventually] are the
// only places in the test suite that use wall-clock timeouts. They
// exist to turn a hang into a test failure, never to synchronize.
//
// All helpers call t.Fatalf on failure.
package testutil
