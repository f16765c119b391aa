// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads waypoint's YAML configuration.
//
// A single file is named by the WAYPOINT_CONFIG environment variable
// ([Load]) or a --config flag ([LoadFile]). There is no search path.
//
// The file may carry development, staging and production sections
// whose values override the base values when [Config].Environment
// matches. Production without an explicit section defaults to JSON
// logging at info level with the metrics endpoint enabled.
//
// After loading, ${HOME}, ${WAYPOINT_DATA} and ${VAR:-default}
// patterns are expanded in path fields. WAYPOINT_DATA defaults to
// the directory holding the config file.
//
// This package depends on no other waypoint packages.
package config
