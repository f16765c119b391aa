// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package barrier coordinates dataset replacement against concurrent
// read queries.
//
// The barrier is a readers-writer gate with writer priority. State is
// an update-pending flag and a count of active queries, both guarded
// by one mutex and waited on through one condition variable:
//
//	reader: lock; while pending { wait }; active++; unlock
//	        ... query ...
//	        lock; active--; if active == 0 && pending { broadcast }; unlock
//
//	writer: lock; while pending { wait }; pending = true
//	        while active > 0 { wait }; unlock
//	        ... swap dataset ...
//	        lock; pending = false; broadcast; unlock
//
// Once a writer sets the flag no new reader is admitted, so the drain
// finishes as soon as the readers already inside complete. A reader
// and a writer arriving together are ordered by who takes the lock
// first.
//
// Each completed update advances an epoch counter, which readers can
// compare against a remembered value to learn that the data changed.
//
// [Local] implements the barrier with sync primitives for use inside
// one process. [Shared] implements the same protocol over a mapped
// shared-memory segment so that the writer can be another process;
// its mutex and condition variable are futex words in the segment.
//
// Protocol violations (EndQuery without a matching BeginQuery,
// EndUpdate without BeginUpdate) panic with [ErrQueryUnderflow] or
// [ErrNoUpdatePending]. They indicate a bug that would corrupt every
// later swap, so they are never returned as errors.
package barrier
