// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/checkerlib/lib/config"
	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/testutil"
)

// dupDescriptor returns a duplicate of file's descriptor, the way a
// runner hands a child its end of a pipe. The duplicate belongs to
// whatever wraps it.
func dupDescriptor(t *testing.T, file *os.File) int {
	t.Helper()
	fd, err := unix.Dup(int(file.Fd()))
	if err != nil {
		t.Fatalf("dup: %v", err)
	}
	return fd
}

func TestOpenInherited(t *testing.T) {
	t.Parallel()

	replyReader, replyWriter := testutil.Pipe(t)
	requestReader, requestWriter := testutil.Pipe(t)

	cfg := config.Default()
	cfg.Control.InboundFD = dupDescriptor(t, replyReader)
	cfg.Control.OutboundFD = dupDescriptor(t, requestWriter)

	ipc, err := OpenInherited(cfg)
	if err != nil {
		t.Fatalf("OpenInherited: %v", err)
	}
	if err := ipc.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := replyWriter.WriteString(`{"response":"FAUST_from_runner"}` + "\n"); err != nil {
		t.Fatal(err)
	}
	got, err := ipc.CheckFlag(4, nil)
	if err != nil {
		t.Fatalf("CheckFlag: %v", err)
	}
	if got != "FAUST_from_runner" {
		t.Errorf("CheckFlag = %q", got)
	}

	line, err := bufio.NewReader(requestReader).ReadString('\n')
	if err != nil {
		t.Fatalf("reading request: %v", err)
	}
	action, _, err := control.DecodeRequest([]byte(line))
	if err != nil || action != control.ActionFlag {
		t.Errorf("request %q: action %s, %v; want FLAG", line, action, err)
	}
}

func TestOpenInheritedClosedDescriptor(t *testing.T) {
	t.Parallel()

	// Far above any descriptor this process could have open.
	const unused = 1 << 30

	cfg := config.Default()
	cfg.Control.InboundFD = unused
	cfg.Control.OutboundFD = unused + 1

	_, err := OpenInherited(cfg)
	if err == nil || !strings.Contains(err.Error(), "not open") {
		t.Errorf("OpenInherited error = %v, want descriptor not open", err)
	}
}
