// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/flag"
)

func TestSessionAddr(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"10.66.1.2":  "10.66.1.2:8080",
		"fd66:1::2":  "[fd66:1::2]:8080",
		"vulnbox-01": "vulnbox-01:8080",
	}
	for ip, want := range tests {
		session := &Session{Target: Target{IP: ip}}
		if got := session.Addr(8080); got != want {
			t.Errorf("Addr(%s) = %q, want %q", ip, got, want)
		}
	}
}

func TestSessionTimeouts(t *testing.T) {
	t.Parallel()

	defaults := &Session{}
	if got := defaults.Dialer().Timeout; got != Timeout {
		t.Errorf("default dial timeout = %v, want %v", got, Timeout)
	}
	if got := defaults.HTTPClient().Timeout; got != Timeout {
		t.Errorf("default HTTP timeout = %v, want %v", got, Timeout)
	}

	custom := &Session{Timeout: 3 * time.Second}
	if got := custom.Dialer().Timeout; got != 3*time.Second {
		t.Errorf("dial timeout = %v, want 3s", got)
	}
	if got := custom.HTTPClient().Timeout; got != 3*time.Second {
		t.Errorf("HTTP timeout = %v, want 3s", got)
	}
}

func TestSessionFlagAndState(t *testing.T) {
	t.Parallel()

	session, memory := newTestSession(t, 8)

	got, err := session.Flag(8, []byte("8bytes!!"))
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if got != "FLAG_8_OGJ5dGVzISE=" {
		t.Errorf("Flag = %q", got)
	}
	if _, err := session.Flag(-1, nil); err == nil {
		t.Error("Flag(-1) = nil error, want out of range")
	}
	if _, err := session.Flag(flag.MaxTick+1, nil); err == nil {
		t.Error("Flag(MaxTick+1) = nil error, want out of range")
	}
	if flags := memory.Flags(); len(flags) != 1 {
		t.Errorf("control saw %d FLAG requests, want 1", len(flags))
	}

	if err := session.Store("notes", []string{"a"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	notes, err := Load[[]string](session, "notes")
	if err != nil || len(notes) != 1 || notes[0] != "a" {
		t.Errorf("Load(notes) = %v, %v", notes, err)
	}
	if _, err := Load[int](session, "absent"); !errors.Is(err, control.ErrNotFound) {
		t.Errorf("Load(absent) error = %v, want ErrNotFound", err)
	}
}
