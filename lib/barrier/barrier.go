// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package barrier

import "errors"

// Panic values for protocol violations.
var (
	ErrQueryUnderflow  = errors.New("barrier: EndQuery without an active query")
	ErrNoUpdatePending = errors.New("barrier: EndUpdate without a pending update")
)

// Barrier is the reader side, used around every query.
type Barrier interface {
	// BeginQuery blocks while an update is pending, then registers
	// the caller as an active query.
	BeginQuery()

	// EndQuery unregisters an active query and wakes a draining
	// writer when the count reaches zero.
	EndQuery()
}

// Writer is the update side, used by the process that replaces the
// dataset.
type Writer interface {
	// BeginUpdate waits for any other update to finish, raises the
	// update-pending flag, and blocks until every active query has
	// ended. On return the caller has exclusive access to the data.
	BeginUpdate()

	// EndUpdate clears the flag and releases waiting readers.
	EndUpdate()
}

// Observer exposes a barrier to metrics and to consumers that need to
// notice completed updates.
type Observer interface {
	State() State

	// Epoch counts completed updates. It changes exactly when
	// EndUpdate runs and is cheap enough to read on every query.
	Epoch() uint32
}

// Coordinator is a barrier usable from both sides.
type Coordinator interface {
	Barrier
	Writer
	Observer
}

// State is a point-in-time snapshot of a barrier.
type State struct {
	UpdatePending  bool
	ActiveQueries  int
	WaitingQueries int
}
