// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// Compile-time checks that both implementations satisfy Interface.
var (
	_ Interface = (*IPC)(nil)
	_ Interface = (*Memory)(nil)
)

func TestMemoryRequiresInitialize(t *testing.T) {
	t.Parallel()

	memory := NewMemory()
	if _, err := memory.CheckFlag(1, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CheckFlag error = %v, want ErrNotInitialized", err)
	}
	if err := memory.Store("k", 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Store error = %v, want ErrNotInitialized", err)
	}
	if err := memory.Load("k", new(int)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Load error = %v, want ErrNotInitialized", err)
	}
	if err := memory.SubmitResult("OK"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SubmitResult error = %v, want ErrNotInitialized", err)
	}
}

func TestMemoryStoreLoad(t *testing.T) {
	t.Parallel()

	type account struct {
		User  string   `json:"user"`
		Notes []string `json:"notes"`
	}

	memory := NewMemory()
	if err := memory.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	stored := account{User: "alice", Notes: []string{"a", "b"}}
	if err := memory.Store("account", stored); err != nil {
		t.Fatalf("Store: %v", err)
	}
	loaded, err := Load[account](memory, "account")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.User != stored.User || len(loaded.Notes) != 2 {
		t.Errorf("Load = %+v, want %+v", loaded, stored)
	}

	if err := memory.Store("score", 42); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := memory.Store("score", 43); err != nil {
		t.Fatalf("Store: %v", err)
	}
	score, err := Load[int](memory, "score")
	if err != nil || score != 43 {
		t.Errorf("Load(score) = %d, %v; want 43 (last store wins)", score, err)
	}

	data, ok := memory.Stored("score")
	if !ok || string(data) != "43" {
		t.Errorf("Stored(score) = %s, %v; want 43", data, ok)
	}
}

func TestMemoryLoadErrors(t *testing.T) {
	t.Parallel()

	memory := NewMemory()
	if err := memory.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := Load[int](memory, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key: error = %v, want ErrNotFound", err)
	}

	if err := memory.Store("name", "alice"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	value, err := Load[int](memory, "name")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("shape mismatch: error = %v, want *DecodeError", err)
	}
	if value != 0 {
		t.Errorf("shape mismatch: value = %d, want zero", value)
	}

	if err := memory.Store("score", 42); err != nil {
		t.Fatalf("Store: %v", err)
	}
	text, err := Load[string](memory, "score")
	if !errors.As(err, &decodeErr) {
		t.Errorf("number into string: error = %v, want *DecodeError", err)
	}
	if text != "" {
		t.Errorf("number into string: value = %q, want zero", text)
	}

	var encodeErr *EncodeError
	if err := memory.Store("chan", make(chan int)); !errors.As(err, &encodeErr) {
		t.Errorf("unencodable value: error = %v, want *EncodeError", err)
	}
}

func TestMemoryCheckFlag(t *testing.T) {
	t.Parallel()

	memory := NewMemory()
	if err := memory.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	flag, err := memory.CheckFlag(12, []byte("hi"))
	if err != nil {
		t.Fatalf("CheckFlag: %v", err)
	}
	if flag != "FLAG_12_aGk=" {
		t.Errorf("flag = %q, want FLAG_12_aGk=", flag)
	}

	memory.FlagFunc = func(tick uint32, payload []byte) string { return "FAUST_custom" }
	flag, err = memory.CheckFlag(13, nil)
	if err != nil || flag != "FAUST_custom" {
		t.Errorf("CheckFlag with FlagFunc = %q, %v", flag, err)
	}

	flags := memory.Flags()
	if len(flags) != 2 || flags[0] != (FlagParam{Tick: 12, Payload: "aGk="}) || flags[1].Tick != 13 {
		t.Errorf("Flags = %+v", flags)
	}
}

func TestMemoryResultsAndLogs(t *testing.T) {
	t.Parallel()

	memory := NewMemory()
	// Records logged before Initialize are kept.
	memory.Log(LogRecord{Level: LevelDebug, Message: "starting"})
	if err := memory.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := memory.SubmitResult(map[string]string{"status": "OK"}); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	logs := memory.Logs()
	if len(logs) != 1 || logs[0].Message != "starting" {
		t.Errorf("Logs = %+v", logs)
	}
	results := memory.Results()
	if len(results) != 1 {
		t.Fatalf("Results = %d entries, want 1", len(results))
	}
	var result map[string]string
	if err := json.Unmarshal(results[0], &result); err != nil || result["status"] != "OK" {
		t.Errorf("result = %s, %v", results[0], err)
	}
}

func TestMemoryConcurrentUse(t *testing.T) {
	t.Parallel()

	memory := NewMemory()
	if err := memory.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var group sync.WaitGroup
	for i := range 16 {
		group.Add(1)
		go func() {
			defer group.Done()
			memory.Log(LogRecord{Message: "tick"})
			if err := memory.Store("shared", i); err != nil {
				t.Errorf("Store: %v", err)
			}
			if _, err := Load[int](memory, "shared"); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	group.Wait()

	if got := len(memory.Logs()); got != 16 {
		t.Errorf("Logs = %d, want 16", got)
	}
}
