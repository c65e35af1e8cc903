// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/checkerlib/lib/control"
)

// Preload stores value under key as if the checker had sent a STORE
// for it in an earlier run.
func (s *Supervisor) Preload(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding preloaded %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = string(data)
	return nil
}

// LoadStateFile preloads state from a JSONC file: a single object
// whose members are the stored keys and values. Comments and trailing
// commas are allowed.
//
//	{
//	    // written by the previous tick's PlaceFlag
//	    "credentials": {"user": "checker", "password": "hunter2"},
//	    "score": 42,
//	}
func (s *Supervisor) LoadStateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return fmt.Errorf("parsing state file %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		var compact bytes.Buffer
		if err := json.Compact(&compact, value); err != nil {
			return fmt.Errorf("state file %s: key %q: %w", path, key, err)
		}
		s.state[key] = compact.String()
	}
	return nil
}

// State returns a copy of the stored data strings by key.
func (s *Supervisor) State() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.state)
}

// Flags returns every FLAG request received, in order.
func (s *Supervisor) Flags() []control.FlagParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]control.FlagParam(nil), s.flags...)
}

// Logs returns every LOG request received, in order.
func (s *Supervisor) Logs() []control.LogParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]control.LogParam(nil), s.logs...)
}

// Results returns every RESULT parameter received, in order.
func (s *Supervisor) Results() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.results...)
}
