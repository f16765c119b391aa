// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that measure or wait on time take a Clock instead of
// calling the time package. Production wiring passes Real(); tests
// pass Fake(), whose time moves only when Advance is called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go watcher.Run(ctx)
//	fake.WaitForTimers(1)            // the debounce timer is armed
//	fake.Advance(500 * time.Millisecond)
//
// WaitForTimers closes the race between a goroutine registering a
// timer and the test advancing past it.
package clock
