// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/checkerlib/lib/codec"
	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/flag"
)

func newTestLocal(t *testing.T, statePath string) *Local {
	t.Helper()
	local := NewLocal(LocalConfig{
		Team:      5,
		Service:   42,
		Secret:    []byte("TOPSECRET"),
		StatePath: statePath,
	})
	if err := local.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return local
}

func TestLocalStoreLoadPersists(t *testing.T) {
	t.Parallel()

	type account struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}

	statePath := filepath.Join(t.TempDir(), "_state.cbor")
	first := newTestLocal(t, statePath)
	if err := first.Store("account", account{User: "u", Password: "p"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := first.Store("score", 7); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// A later run sees what an earlier run stored.
	second := newTestLocal(t, statePath)
	got, err := control.Load[account](second, "account")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != (account{User: "u", Password: "p"}) {
		t.Errorf("Load(account) = %+v", got)
	}
	score, err := control.Load[int](second, "score")
	if err != nil || score != 7 {
		t.Errorf("Load(score) = %d, %v; want 7", score, err)
	}

	if _, err := control.Load[int](second, "missing"); !errors.Is(err, control.ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	// The file is CBOR holding each value's JSON serialization.
	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatal(err)
	}
	var state localState
	if err := codec.Unmarshal(data, &state); err != nil {
		t.Fatalf("state file is not CBOR: %v", err)
	}
	if state.Version != localStateVersion || string(state.Entries["score"]) != "7" {
		t.Errorf("state = %+v", state)
	}
}

func TestLocalLoadWithoutStateFile(t *testing.T) {
	t.Parallel()

	local := newTestLocal(t, filepath.Join(t.TempDir(), "absent.cbor"))
	if _, err := control.Load[string](local, "anything"); !errors.Is(err, control.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLocalRejectsBadStateFile(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()

	corrupt := filepath.Join(directory, "corrupt.cbor")
	if err := os.WriteFile(corrupt, []byte("{not cbor"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := control.Load[int](newTestLocal(t, corrupt), "k"); err == nil || errors.Is(err, control.ErrNotFound) {
		t.Errorf("corrupt file: error = %v, want a decode error", err)
	}

	future := filepath.Join(directory, "future.cbor")
	data, err := codec.Marshal(localState{Version: localStateVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(future, data, 0o600); err != nil {
		t.Fatal(err)
	}
	err = newTestLocal(t, future).Store("k", 1)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("future version: error = %v, want a version error", err)
	}
}

func TestLocalDetectsTampering(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "_state.cbor")
	if err := newTestLocal(t, statePath).Store("score", 7); err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatal(err)
	}
	var state localState
	if err := codec.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	state.Entries["score"] = []byte("9000")
	tampered, err := codec.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(statePath, tampered, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = control.Load[int](newTestLocal(t, statePath), "score")
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Errorf("error = %v, want digest mismatch", err)
	}
}

func TestLocalCheckFlag(t *testing.T) {
	t.Parallel()

	local := newTestLocal(t, filepath.Join(t.TempDir(), "_state.cbor"))
	got, err := local.CheckFlag(30, nil)
	if err != nil {
		t.Fatalf("CheckFlag: %v", err)
	}
	info, err := flag.Verify(got, []byte("TOPSECRET"))
	if err != nil {
		t.Fatalf("Verify(%q): %v", got, err)
	}
	if info.Tick != 30 || info.Team != 5 || info.Service != 42 {
		t.Errorf("flag info = %+v, want tick 30 team 5 service 42", info)
	}

	if _, err := local.CheckFlag(30, []byte("short")); err == nil {
		t.Error("CheckFlag with a 5-byte payload = nil error, want error")
	}
	if _, err := local.CheckFlag(flag.MaxTick+1, nil); err == nil {
		t.Error("CheckFlag above MaxTick = nil error, want error")
	}
}

func TestLocalRequiresInitialize(t *testing.T) {
	t.Parallel()

	local := NewLocal(LocalConfig{StatePath: filepath.Join(t.TempDir(), "_state.cbor")})
	if _, err := local.CheckFlag(1, nil); !errors.Is(err, control.ErrNotInitialized) {
		t.Errorf("CheckFlag error = %v, want ErrNotInitialized", err)
	}
	if err := local.Store("k", 1); !errors.Is(err, control.ErrNotInitialized) {
		t.Errorf("Store error = %v, want ErrNotInitialized", err)
	}
	if err := local.Load("k", new(int)); !errors.Is(err, control.ErrNotInitialized) {
		t.Errorf("Load error = %v, want ErrNotInitialized", err)
	}
	if err := local.SubmitResult(ResultOK); !errors.Is(err, control.ErrNotInitialized) {
		t.Errorf("SubmitResult error = %v, want ErrNotInitialized", err)
	}
}

func TestLocalLogsAndResult(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	local := NewLocal(LocalConfig{
		StatePath: filepath.Join(t.TempDir(), "_state.cbor"),
		Logger:    slog.New(slog.NewTextHandler(&output, &slog.HandlerOptions{Level: control.SlogLevelTrace})),
	})
	if err := local.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	local.Log(control.LogRecord{Level: control.LevelWarn, Message: "slow response"})
	if err := local.SubmitResult(ResultFaulty); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	text := output.String()
	for _, want := range []string{"level=WARN", `msg="slow response"`, "result=FAULTY"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q:\n%s", want, text)
		}
	}
}
