// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package facade gives query handlers one read-only view of the
// routing dataset regardless of where the dataset lives.
//
// [Internal] owns a dataset loaded from files by this process. It
// never changes.
//
// [Shared] reads a dataset that waypoint-datastore publishes into a
// shared region. The object handed to handlers stays the same for the
// life of the server; what it points at is replaced when the
// datastore publishes a new generation. Replacement happens only
// between queries: the datastore publishes under the coordination
// barrier's exclusive phase, and the facade notices the barrier's
// epoch change on the first call of the next admitted query.
//
// [Bootstrap] picks and constructs the variant from configuration,
// together with the barrier in shared mode.
package facade
