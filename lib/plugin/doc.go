// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin defines the query handler contract and the registry
// that maps service names to handlers.
//
// A Handler answers one kind of query ("locate", "viaroute", ...)
// against a [facade.Facade]. The [Registry] owns its handlers: a
// handler registered under a name that is already taken replaces the
// previous one, which is closed first if it implements [io.Closer].
// The registry is populated during single-threaded startup and is
// read-only while requests are served, so it carries no locking.
package plugin
