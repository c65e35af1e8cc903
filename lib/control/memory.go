// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process [Interface] for unit-testing checker logic.
// Stored values go through the same JSON serialization as on the wire,
// so a value that would fail to encode or decode over [IPC] fails here
// too. Logs, results, and flag requests are recorded for inspection.
//
// Memory is safe for concurrent use.
type Memory struct {
	// FlagFunc produces the flag returned by CheckFlag. When nil,
	// flags are "FLAG_<tick>_<base64 payload>".
	FlagFunc func(tick uint32, payload []byte) string

	mu      sync.Mutex
	ready   bool
	state   map[string][]byte
	flags   []FlagParam
	logs    []LogRecord
	results []json.RawMessage
}

// NewMemory returns an uninitialized Memory with empty state.
func NewMemory() *Memory {
	return &Memory{state: make(map[string][]byte)}
}

func (m *Memory) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	return nil
}

func (m *Memory) CheckFlag(tick uint32, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return "", ErrNotInitialized
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	m.flags = append(m.flags, FlagParam{Tick: tick, Payload: encoded})
	if m.FlagFunc != nil {
		return m.FlagFunc(tick, payload), nil
	}
	return fmt.Sprintf("FLAG_%d_%s", tick, encoded), nil
}

func (m *Memory) Store(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &EncodeError{Action: ActionStore, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	m.state[key] = data
	return nil
}

func (m *Memory) Load(key string, target any) error {
	m.mu.Lock()
	data, ok := m.state[key]
	ready := m.ready
	m.mu.Unlock()

	if !ready {
		return ErrNotInitialized
	}
	if !ok {
		return fmt.Errorf("loading %q: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &DecodeError{Line: data, Err: err}
	}
	return nil
}

// Log records the record. Unlike [IPC.Log] it cannot fail, and it
// records even before Initialize so that no test output is lost.
func (m *Memory) Log(record LogRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, record)
}

func (m *Memory) SubmitResult(result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return &EncodeError{Action: ActionResult, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	m.results = append(m.results, data)
	return nil
}

// Flags returns the FLAG requests seen so far, in order.
func (m *Memory) Flags() []FlagParam {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FlagParam(nil), m.flags...)
}

// Logs returns the records logged so far, in order.
func (m *Memory) Logs() []LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogRecord(nil), m.logs...)
}

// Results returns the JSON serialization of every submitted result,
// in order.
func (m *Memory) Results() []json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]json.RawMessage(nil), m.results...)
}

// Stored returns the JSON data stored under key.
func (m *Memory) Stored(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.state[key]
	return data, ok
}
