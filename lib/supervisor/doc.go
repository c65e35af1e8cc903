// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor implements the runner's side of the control
// channel in-process. It exists so checkers can be exercised end to end
// without the real checker runner: cmd/checker-runner-mock launches a
// checker binary against it, and package tests drive [control.IPC]
// through it over pipes.
//
// The supervisor honors the runner's wire contract and nothing more:
// exactly one reply line for every FLAG and LOAD request, no reply for
// STORE, LOG, and RESULT. STORE data is kept in memory and echoed back
// by LOAD as the same data string. Flags are generated with lib/flag
// for a fixed team and service.
package supervisor
