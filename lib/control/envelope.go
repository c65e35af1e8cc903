// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Request is the envelope of every message written by the checker.
type Request struct {
	Action Action `json:"action"`
	Param  any    `json:"param"`
}

// Response is the envelope of every reply written by the runner.
type Response[T any] struct {
	Response T `json:"response"`
}

// wireRequest is the decoding-side view of [Request]. Param is kept
// raw so the action can be inspected before the parameter is typed.
type wireRequest struct {
	Action Action          `json:"action"`
	Param  json.RawMessage `json:"param"`
}

// wireResponse is the decoding-side view of [Response]. A missing
// field leaves Response empty; an explicit null is kept as "null".
type wireResponse struct {
	Response json.RawMessage `json:"response"`
}

// EncodeRequest produces the wire form of a request: a single JSON
// document terminated by one newline. encoding/json escapes control
// characters inside strings and compacts the output of custom
// marshalers, so the document itself never contains a raw newline.
func EncodeRequest(action Action, param any) ([]byte, error) {
	if !action.Valid() {
		return nil, &EncodeError{Action: action, Err: fmt.Errorf("unknown action %q", string(action))}
	}
	data, err := json.Marshal(Request{Action: action, Param: param})
	if err != nil {
		return nil, &EncodeError{Action: action, Err: err}
	}
	return append(data, '\n'), nil
}

// DecodeRequest is the inverse of [EncodeRequest]. It returns the
// action and the undecoded parameter; use [DecodeParam] to type it.
func DecodeRequest(line []byte) (Action, json.RawMessage, error) {
	line = trimLine(line)
	var request wireRequest
	if err := json.Unmarshal(line, &request); err != nil {
		return "", nil, &DecodeError{Line: line, Err: err}
	}
	if !request.Action.Valid() {
		return "", nil, &DecodeError{Line: line, Err: fmt.Errorf("unknown action %q", string(request.Action))}
	}
	if len(request.Param) == 0 {
		return "", nil, &DecodeError{Line: line, Err: errors.New(`missing "param" field`)}
	}
	return request.Action, request.Param, nil
}

// DecodeParam types a raw request parameter returned by [DecodeRequest].
func DecodeParam[T any](raw json.RawMessage) (T, error) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, &DecodeError{Line: raw, Err: err}
	}
	return value, nil
}

// EncodeResponse produces the wire form of a reply carrying value.
func EncodeResponse(value any) ([]byte, error) {
	data, err := json.Marshal(Response[any]{Response: value})
	if err != nil {
		return nil, fmt.Errorf("control: encoding response: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses a reply line and extracts its value as T.
// The line must be a JSON object with a "response" field whose value
// decodes into T. On any failure the zero T is returned together with
// a [*DecodeError]; no partially decoded value escapes.
func DecodeResponse[T any](line []byte) (T, error) {
	var zero T
	line = trimLine(line)

	var envelope wireResponse
	if err := json.Unmarshal(line, &envelope); err != nil {
		return zero, &DecodeError{Line: line, Err: err}
	}
	if len(envelope.Response) == 0 {
		return zero, &DecodeError{Line: line, Err: errors.New(`missing "response" field`)}
	}

	var value T
	if err := json.Unmarshal(envelope.Response, &value); err != nil {
		return zero, &DecodeError{Line: line, Err: err}
	}
	return value, nil
}

func trimLine(line []byte) []byte {
	return bytes.TrimRight(line, "\r\n")
}
