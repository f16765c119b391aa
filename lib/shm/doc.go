// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shm provides the two kinds of named shared memory waypoint
// uses between the query server and the datastore process.
//
// A [Segment] is a small fixed-size file mapped read-write into every
// process that opens it. The coordination barrier lives in one. All
// openers see the same bytes, so callers must only touch a segment
// through atomic operations or under a lock that lives in the segment.
//
// A [Region] is a variable-size file accessed through pread and
// pwrite. The datastore rewrites it wholesale on every publication;
// readers copy what they need out of it. Regions are never mapped, so
// a writer truncating the file cannot fault a reader.
//
// Both are plain files, normally under /dev/shm on Linux. Tests place
// them in a temporary directory.
package shm
