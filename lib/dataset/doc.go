// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset holds the routing dataset: node coordinates, road
// segments between them, street names, and the timestamp of the map
// extract they were built from.
//
// [Contents] is the serialized form. [New] validates contents and
// builds the read-only structures queries need: adjacency arrays for
// traversal and latitude-ordered B-trees for nearest-node and
// nearest-segment search. A [Dataset] is immutable once built and
// safe for concurrent readers.
//
// Datasets reach a process two ways. [Load] reads the dataset files
// named by [Paths] (CBOR, optionally zstd or lz4 compressed, chosen by
// file extension). [ReadRegion] decodes a dataset the datastore
// published into a shared region; see region.go for the layout.
//
// Every road segment is stored once. Forward and Backward say in
// which directions it may be traversed.
package dataset
