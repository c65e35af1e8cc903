// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of a checker binary is running.
//
// Release builds inject the commit and build time with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/checkerlib/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Plain `go build` in a checkout needs no flags: the VCS stamp the
// toolchain embeds fills in the commit, dirty state, and commit time.
package version
