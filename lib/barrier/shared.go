// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package barrier

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"
)

// SegmentSize is the size of the shared barrier state. Every process
// attaching to the segment must agree on it.
const SegmentSize = 32

// Segment layout: eight little-endian uint32 words.
const (
	wordMagic = iota
	wordVersion
	wordMutex
	wordUpdatePending
	wordActiveQueries
	wordWaitingQueries
	wordConditionSequence
	wordEpoch
)

const (
	segmentMagic   uint32 = 0x52425057 // "WPBR"
	segmentVersion uint32 = 1

	// conditionPoll bounds every condition wait. A wake-up lost to a
	// process that died mid-broadcast costs at most one poll interval.
	conditionPoll = 100 * time.Millisecond
)

// Mutex word states.
const (
	unlocked  uint32 = 0
	locked    uint32 = 1
	contended uint32 = 2
)

// Shared is a barrier whose state lives in a shared-memory segment.
// Any number of processes may map the same segment; each gets its own
// Shared over the mapping.
type Shared struct {
	words *[SegmentSize / 4]uint32
}

// OpenShared attaches to barrier state in memory, which must be at
// least SegmentSize bytes, 4-byte aligned, and normally a
// shared-memory mapping. A zero-filled segment is initialized. A
// segment initialized by an incompatible build is rejected.
func OpenShared(memory []byte) (*Shared, error) {
	if len(memory) < SegmentSize {
		return nil, fmt.Errorf("barrier segment is %d bytes, need %d", len(memory), SegmentSize)
	}
	if uintptr(unsafe.Pointer(&memory[0]))%4 != 0 {
		return nil, fmt.Errorf("barrier segment is not 4-byte aligned")
	}

	shared := &Shared{words: (*[SegmentSize / 4]uint32)(unsafe.Pointer(&memory[0]))}

	magic := shared.word(wordMagic)
	if !atomic.CompareAndSwapUint32(magic, 0, segmentMagic) {
		if found := atomic.LoadUint32(magic); found != segmentMagic {
			return nil, fmt.Errorf("barrier segment has magic %#x, want %#x", found, segmentMagic)
		}
	}
	version := shared.word(wordVersion)
	atomic.CompareAndSwapUint32(version, 0, segmentVersion)
	if found := atomic.LoadUint32(version); found != segmentVersion {
		return nil, fmt.Errorf("barrier segment layout version %d, want %d", found, segmentVersion)
	}

	return shared, nil
}

func (b *Shared) word(index int) *uint32 {
	return &b.words[index]
}

func (b *Shared) BeginQuery() {
	b.lock()
	if b.load(wordUpdatePending) != 0 {
		b.add(wordWaitingQueries, 1)
		for b.load(wordUpdatePending) != 0 {
			b.wait()
		}
		b.add(wordWaitingQueries, ^uint32(0))
	}
	b.add(wordActiveQueries, 1)
	b.unlock()
}

func (b *Shared) EndQuery() {
	b.lock()
	active := b.load(wordActiveQueries)
	if active == 0 {
		b.unlock()
		panic(ErrQueryUnderflow)
	}
	b.store(wordActiveQueries, active-1)
	if active == 1 && b.load(wordUpdatePending) != 0 {
		b.broadcast()
	}
	b.unlock()
}

func (b *Shared) BeginUpdate() {
	b.lock()
	for b.load(wordUpdatePending) != 0 {
		b.wait()
	}
	b.store(wordUpdatePending, 1)
	for b.load(wordActiveQueries) > 0 {
		b.wait()
	}
	b.unlock()
}

func (b *Shared) EndUpdate() {
	b.lock()
	if b.load(wordUpdatePending) == 0 {
		b.unlock()
		panic(ErrNoUpdatePending)
	}
	b.store(wordUpdatePending, 0)
	b.add(wordEpoch, 1)
	b.broadcast()
	b.unlock()
}

// Epoch returns the number of completed updates, wrapping at 2^32.
// It takes no lock.
func (b *Shared) Epoch() uint32 {
	return b.load(wordEpoch)
}

// State returns a snapshot of the shared barrier.
func (b *Shared) State() State {
	b.lock()
	defer b.unlock()
	return State{
		UpdatePending:  b.load(wordUpdatePending) != 0,
		ActiveQueries:  int(b.load(wordActiveQueries)),
		WaitingQueries: int(b.load(wordWaitingQueries)),
	}
}

func (b *Shared) load(index int) uint32 {
	return atomic.LoadUint32(b.word(index))
}

func (b *Shared) store(index int, value uint32) {
	atomic.StoreUint32(b.word(index), value)
}

func (b *Shared) add(index int, delta uint32) {
	atomic.AddUint32(b.word(index), delta)
}

// lock acquires the segment mutex. The word is 0 when free, 1 when
// held, 2 when held with possible sleepers.
func (b *Shared) lock() {
	mutex := b.word(wordMutex)
	if atomic.CompareAndSwapUint32(mutex, unlocked, locked) {
		return
	}
	for atomic.SwapUint32(mutex, contended) != unlocked {
		futexWait(mutex, contended, conditionPoll)
	}
}

func (b *Shared) unlock() {
	mutex := b.word(wordMutex)
	if atomic.SwapUint32(mutex, unlocked) == contended {
		futexWake(mutex, 1)
	}
}

// wait releases the mutex until the next broadcast (or the poll
// interval), then reacquires it. Callers re-check their predicate.
func (b *Shared) wait() {
	sequence := b.word(wordConditionSequence)
	observed := atomic.LoadUint32(sequence)
	b.unlock()
	futexWait(sequence, observed, conditionPoll)
	b.lock()
}

// broadcast wakes every waiter. The mutex must be held.
func (b *Shared) broadcast() {
	sequence := b.word(wordConditionSequence)
	atomic.AddUint32(sequence, 1)
	futexWake(sequence, wakeAll)
}

var _ Coordinator = (*Shared)(nil)
