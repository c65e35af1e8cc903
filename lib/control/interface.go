// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bytes"
	"encoding/json"
)

// Interface is the capability set a checker uses to talk to its
// runner. Implementations are [IPC] (the real channel), [Memory] (an
// in-process double), and the local-mode implementation in
// lib/checker.
//
// Every operation requires a prior successful Initialize.
type Interface interface {
	// Initialize prepares the interface for use. It is the only
	// transition out of the uninitialized state.
	Initialize() error

	// CheckFlag asks the runner for the flag of tick, optionally
	// bound to payload, and returns it. Blocks until the reply
	// arrives.
	CheckFlag(tick uint32, payload []byte) (string, error)

	// Store persists the JSON serialization of value under key.
	// Returns as soon as the request is written.
	Store(key string, value any) error

	// Load retrieves the value stored under key and decodes it into
	// target, which must be a non-nil pointer. Blocks until the reply
	// arrives. Use the generic [Load] function for a typed result.
	Load(key string, target any) error

	// Log forwards one record. It never reports failure: an
	// implementation that cannot deliver the record treats that as
	// fatal for the process.
	Log(record LogRecord)

	// SubmitResult sends the final check outcome. Returns as soon as
	// the request is written.
	SubmitResult(result any) error
}

// Load retrieves the value stored under key as a D. On failure the
// zero D is returned.
//
// The reply is the stored data string. When that string holds valid
// JSON it is unwrapped before decoding, so a reply of "42" decodes as
// the number 42: Load[string] fails on it and Load[any] yields
// float64(42). A string that is not valid JSON is decoded as itself.
//
//	score, err := control.Load[int](iface, "score")
func Load[D any](iface Interface, key string) (D, error) {
	var value D
	if err := iface.Load(key, &value); err != nil {
		var zero D
		return zero, err
	}
	return value, nil
}

// decodeStored decodes a LOAD reply value into target. The runner
// answers with the data string exactly as it was stored, so a JSON
// string whose contents are valid JSON is always unwrapped and its
// contents decoded into target; a shape mismatch there is a
// [DecodeError]. Any other reply is decoded directly. A null reply
// means nothing is stored under the key.
func decodeStored(raw json.RawMessage, target any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ErrNotFound
	}

	var data string
	if json.Unmarshal(raw, &data) == nil && json.Valid([]byte(data)) {
		if err := json.Unmarshal([]byte(data), target); err != nil {
			return &DecodeError{Line: raw, Err: err}
		}
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &DecodeError{Line: raw, Err: err}
	}
	return nil
}
