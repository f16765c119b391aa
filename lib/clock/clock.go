// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations waypoint depends on: request
// latency measurement, debouncing of dataset file changes, and the
// polling fallback of the shared barrier.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer can
	// cancel or reschedule the call.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Since returns the time elapsed on c since start.
func Since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the pending call. It returns true if the call was
// still pending.
func (t *Timer) Stop() bool { return t.stop() }

// Reset reschedules the call to happen d from now. It returns true if
// the call was still pending before the reset.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }
