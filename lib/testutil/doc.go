// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for checkerlib
// packages.
//
// The control channel blocks: a FLAG or LOAD request waits
// for a reply line with no deadline. A test that gets the protocol
// wrong therefore hangs rather than fails. [RequireReceive],
// [RequireClosed], and [RequireReturn] wrap the blocking step in a
// select with a wall-clock fallback so that such a test fails with a
// message instead of running into the global test timeout.
//
// [Pipe] returns the two ends of an OS pipe, the same kind of stream a
// runner hands a checker as its inherited descriptors.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no checkerlib-internal dependencies.
package testutil
