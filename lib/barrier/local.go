// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package barrier

import (
	"sync"
	"sync/atomic"
)

// Local is an in-process barrier. The zero value is not usable; call
// NewLocal.
type Local struct {
	mu      sync.Mutex
	changed *sync.Cond

	updatePending  bool
	activeQueries  int
	waitingQueries int

	epoch atomic.Uint32
}

// NewLocal returns an idle barrier.
func NewLocal() *Local {
	local := &Local{}
	local.changed = sync.NewCond(&local.mu)
	return local
}

func (b *Local) BeginQuery() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.updatePending {
		b.waitingQueries++
		for b.updatePending {
			b.changed.Wait()
		}
		b.waitingQueries--
	}
	b.activeQueries++
}

func (b *Local) EndQuery() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.activeQueries == 0 {
		panic(ErrQueryUnderflow)
	}
	b.activeQueries--
	if b.activeQueries == 0 && b.updatePending {
		b.changed.Broadcast()
	}
}

func (b *Local) BeginUpdate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.updatePending {
		b.changed.Wait()
	}
	b.updatePending = true
	for b.activeQueries > 0 {
		b.changed.Wait()
	}
}

func (b *Local) EndUpdate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.updatePending {
		panic(ErrNoUpdatePending)
	}
	b.updatePending = false
	b.epoch.Add(1)
	b.changed.Broadcast()
}

// Epoch returns the number of completed updates.
func (b *Local) Epoch() uint32 {
	return b.epoch.Load()
}

// State returns a snapshot of the barrier.
func (b *Local) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		UpdatePending:  b.updatePending,
		ActiveQueries:  b.activeQueries,
		WaitingQueries: b.waitingQueries,
	}
}

var _ Coordinator = (*Local)(nil)
