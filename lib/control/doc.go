// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the checker side of the control channel
// between a sandboxed checker script and the checker runner that
// supervises it.
//
// The channel is a pair of one-directional byte streams inherited from
// the runner: the checker writes requests to the outbound stream and
// reads replies from the inbound stream. Every message is exactly one
// JSON document followed by a newline. Requests carry an action tag and
// an action-specific parameter:
//
//	{"action": "FLAG", "param": {"tick": 7, "payload": "AAAAAAAAAAA="}}
//
// Replies carry a single field:
//
//	{"response": "FAUST_..."}
//
// Only FLAG and LOAD are answered. STORE, LOG, and RESULT are
// fire-and-forget: the runner must not write anything back for them,
// since there is no request identifier to match a stray reply against
// the request that caused it.
//
// [Interface] is the capability set the rest of a checker uses.
// [IPC] is the stream-backed implementation; [Memory] is an in-process
// implementation for unit-testing checker logic without a runner.
// [Handler] adapts [Interface.Log] to log/slog so that a checker's
// ordinary structured logging reaches the runner.
//
// The package never acquires file descriptors itself. Callers open the
// inherited streams (see lib/checker) and inject them into [NewIPC].
package control
