// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugins implements the query services answered by
// waypoint-routed:
//
//   - hello: diagnostic echo of the parsed request
//   - locate: nearest graph node to a coordinate
//   - nearest: nearest road segments to a coordinate
//   - timestamp: identity of the loaded dataset
//   - viaroute: route between two or more coordinates
//
// Bodies carry a result status of their own, separate from the
// transport [plugin.Status]: [ResultFound] when the query was answered
// and [ResultNotFound] when the input was well formed but nothing
// matched. Malformed input is reported as [plugin.StatusBadRequest].
//
// Route search is not part of this package. The viaroute service
// snaps its input and hands the result to a [RouteEngine].
package plugins
