// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

// FlagParam is the parameter of a FLAG request. Payload is the
// standard base64 encoding of the caller's payload bytes.
type FlagParam struct {
	Tick    uint32 `json:"tick"`
	Payload string `json:"payload"`
}

// StoreParam is the parameter of a STORE request. Data is the JSON
// serialization of the stored value, carried as a string so the
// runner can persist it without understanding its shape.
type StoreParam struct {
	Key  string `json:"key"`
	Data string `json:"data"`
}

// LogParam is the parameter of a LOG request. The field names follow
// the runner's log record attributes (funcName, pathname, lineno),
// hence the mixed casing on the wire.
type LogParam struct {
	Level    uint32 `json:"level"`
	Message  string `json:"message"`
	FuncName string `json:"funcName"`
	Pathname string `json:"pathname"`
	Lineno   uint32 `json:"lineno"`
}

// The LOAD parameter is the bare key string and the RESULT parameter
// is whatever value the caller submits, so neither has a struct here.
