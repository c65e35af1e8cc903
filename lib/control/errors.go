// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by every operation of an [IPC] that
// has not been through [IPC.Initialize].
var ErrNotInitialized = errors.New("control: interface not initialized")

// ErrNotFound is returned by Load when nothing is stored under the
// requested key. Over the wire a missing key arrives as a null
// response.
var ErrNotFound = errors.New("control: no value stored for key")

// TransportError reports a failed read or write on one of the two
// streams: broken pipe, peer closed before a reply line arrived, or
// any other I/O fault.
type TransportError struct {
	// Action is the request being carried when the failure occurred.
	Action Action

	// Op is "write" or "read".
	Op string

	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("control: %s %s: %v", e.Action, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EncodeError reports a value that cannot be serialized to the wire
// format, or a request with an unknown action.
type EncodeError struct {
	Action Action
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("control: encoding %s request: %v", e.Action, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a received line that is not valid JSON, lacks
// the envelope field, or does not match the expected shape.
type DecodeError struct {
	// Line is the offending input, without the trailing newline.
	Line []byte

	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("control: decoding %q: %v", truncate(e.Line, 120), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncate(line []byte, limit int) string {
	if len(line) <= limit {
		return string(line)
	}
	return string(line[:limit]) + "..."
}
