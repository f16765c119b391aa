// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datastore publishes datasets into the shared data region.
//
// A [Publisher] is the writer side of the coordination barrier. It
// encodes, compresses and digests a dataset before touching the
// barrier, then holds the update only for the writes themselves:
// BeginUpdate waits for admitted queries to drain, the payload and a
// header with the next generation are written, and EndUpdate lets
// queries back in. Servers notice the new generation on their next
// admitted query.
//
// A [Watcher] republishes whenever the dataset files change, after a
// quiet period so a multi-file rebuild is published once.
package datastore
