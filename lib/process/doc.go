// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for waypoint binaries.
// Fatal is the one sanctioned raw write to stderr: it runs when the
// structured logger may not exist yet.
package process
