// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package checker is the runtime for checker scripts: binaries that a
// CTF checker runner starts once per team, service, and tick to decide
// whether the team's service is working.
//
// A checker implements [Checker] and hands it to [Main]. Main parses
// the runner's command line (<ip> <team> <tick>), picks the control
// channel, and runs the standard sequence in [Check]: place this
// tick's flag, check general service health, then check that the flags
// of the last few ticks are still retrievable. The outcome is submitted
// to the runner as a [Result].
//
// # Supervised and local mode
//
// When CTF_CHECKERSCRIPT is set, the runner started the checker with
// the control channel on inherited descriptors (3 and 4 by default,
// see lib/config). [OpenInherited] wraps them in a [control.IPC], and
// the default slog logger forwards to the runner.
//
// Otherwise the checker runs in local mode for development: [Local]
// generates flags itself with a fixed secret, persists stored state in
// a CBOR file in the working directory, and logs to stderr.
//
// # Connection errors
//
// A service that refuses or drops connections is DOWN, not a checker
// bug. [Run] classifies step errors with [IsConnError]; connection
// errors become [ResultDown], every other error aborts the run without
// a result so the runner records the checker as broken.
package checker
