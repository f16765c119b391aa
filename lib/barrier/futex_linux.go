// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package barrier

import (
	"math"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The barrier words are shared between processes, so the private
// futex variants cannot be used.
const (
	futexWaitOp = 0 // FUTEX_WAIT
	futexWakeOp = 1 // FUTEX_WAKE

	wakeAll = math.MaxInt32
)

// futexWait sleeps while *addr == expected, until woken or timeout.
// Spurious returns are expected; callers loop.
func futexWait(addr *uint32, expected uint32, timeout time.Duration) {
	timespec := unix.NsecToTimespec(timeout.Nanoseconds())
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWaitOp,
		uintptr(expected),
		uintptr(unsafe.Pointer(&timespec)),
		0, 0)
}

// futexWake wakes up to count sleepers on addr.
func futexWake(addr *uint32, count int) {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakeOp,
		uintptr(count),
		0, 0, 0)
}
