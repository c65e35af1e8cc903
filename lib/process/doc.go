// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the one sanctioned way for checker code to
// end the process on an unrecoverable error.
//
// Two situations use it:
//
//   - main() of a checker binary, for errors returned before or
//     outside the structured logger (argument parsing, configuration,
//     opening the inherited control streams).
//   - The control channel's log forwarding: once a log record cannot
//     be written to the runner the channel is unusable, and the
//     process ends rather than continuing without reporting.
//
// The message goes to stderr, which the runner captures separately
// from the control channel.
package process
