// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for checker
// binaries.
//
// Configuration comes from at most one file, named by the
// CHECKER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Unlike the runner, a checker is routinely started
// by hand during development, so a missing CHECKER_CONFIG is not an
// error: [Load] returns [Default]. There is no file discovery and no
// per-field environment override.
//
// ${VAR} and ${VAR:-default} patterns are expanded in
// local.state_file after loading.
//
// Key exports:
//
//   - [Config] -- master struct with Control, Network, Local, Log
//   - [Default] -- the values a checker runs with absent a file
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other checkerlib packages.
package config
