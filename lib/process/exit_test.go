// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

func TestFatal(t *testing.T) {
	var output bytes.Buffer
	var code int
	exited := false

	originalStderr, originalExit := stderr, exit
	t.Cleanup(func() {
		stderr, exit = originalStderr, originalExit
	})
	stderr = &output
	exit = func(c int) {
		exited = true
		code = c
	}

	Fatal(errors.New("control channel closed"))

	if !exited {
		t.Fatal("Fatal did not exit")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if got, want := output.String(), "error: control channel closed\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
