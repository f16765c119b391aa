// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock set to start.
func Fake(start time.Time) *FakeClock {
	fake := &FakeClock{now: start}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a Clock whose time advances only through Advance. It
// is safe for concurrent use.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order. A callback must not call Advance or Sleep on the same clock.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	// Exactly one of channel and callback is set.
	channel  chan time.Time
	callback func()
	active   bool
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock has advanced
// by d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.scheduleLocked(&fakeTimer{deadline: c.now.Add(d), channel: channel})
	return channel
}

// AfterFunc arranges for f to run during the Advance call that moves
// the clock past now+d. If d <= 0, f runs before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	entry := &fakeTimer{deadline: c.now.Add(d), callback: f}
	c.scheduleLocked(entry)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := entry.active
			c.removeLocked(entry)
			return wasActive
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := entry.active
			c.removeLocked(entry)
			entry.deadline = c.now.Add(d)
			c.scheduleLocked(entry)
			return wasActive
		},
	}
}

// Sleep blocks until the clock has advanced by d.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every timer whose
// deadline is reached, earliest first. Channel sends never block.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		entry := c.popExpired(target)
		if entry == nil {
			return
		}
		if entry.callback != nil {
			entry.callback()
			continue
		}
		select {
		case entry.channel <- target:
		default:
		}
	}
}

// popExpired removes and returns the earliest timer due at or before
// target, or nil.
func (c *FakeClock) popExpired(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 || c.pending[0].deadline.After(target) {
		return nil
	}
	entry := c.pending[0]
	c.pending = c.pending[1:]
	entry.active = false
	return entry
}

// WaitForTimers blocks until at least n timers are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of timers not yet fired or stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *FakeClock) scheduleLocked(entry *fakeTimer) {
	entry.active = true
	index := sort.Search(len(c.pending), func(i int) bool {
		return c.pending[i].deadline.After(entry.deadline)
	})
	c.pending = append(c.pending, nil)
	copy(c.pending[index+1:], c.pending[index:])
	c.pending[index] = entry
	c.changed.Broadcast()
}

func (c *FakeClock) removeLocked(entry *fakeTimer) {
	if !entry.active {
		return
	}
	for i, candidate := range c.pending {
		if candidate == entry {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	entry.active = false
	c.changed.Broadcast()
}
