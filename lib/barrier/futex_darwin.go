// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package barrier

import (
	"math"
	"sync/atomic"
	"time"
)

const wakeAll = math.MaxInt32

// pollInterval is how often a waiter re-reads the word. Darwin has no
// public cross-process futex, so waits degrade to polling.
const pollInterval = 200 * time.Microsecond

func futexWait(addr *uint32, expected uint32, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for atomic.LoadUint32(addr) == expected && time.Now().Before(deadline) {
		time.Sleep(pollInterval)
	}
}

func futexWake(*uint32, int) {}
