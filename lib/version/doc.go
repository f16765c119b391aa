// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build information for waypoint binaries.
//
// The variables are injected at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/waypoint/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds report "0.1.0-dev (unknown, unknown)".
package version
