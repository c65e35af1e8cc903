// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

// Action selects which operation a request represents. The set is
// closed: the runner understands exactly these five tags.
type Action string

const (
	// ActionFlag asks the runner for the flag of a tick. Answered
	// with the flag string.
	ActionFlag Action = "FLAG"

	// ActionStore persists a JSON-serialized value under a key.
	ActionStore Action = "STORE"

	// ActionLoad retrieves a value previously stored under a key.
	// Answered with the stored value.
	ActionLoad Action = "LOAD"

	// ActionLog forwards one log record.
	ActionLog Action = "LOG"

	// ActionResult submits the final check outcome.
	ActionResult Action = "RESULT"
)

// Valid reports whether a is one of the five known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionFlag, ActionStore, ActionLoad, ActionLog, ActionResult:
		return true
	}
	return false
}

// ExpectsResponse reports whether the runner answers a request with
// this action. Only FLAG and LOAD are answered.
func (a Action) ExpectsResponse() bool {
	return a == ActionFlag || a == ActionLoad
}

func (a Action) String() string { return string(a) }
