// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/testutil"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	parsed, err := parseArgs("checker", []string{"--config", "/etc/checker.yaml", "10.66.3.2", "3", "120"}, &output)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	want := Target{IP: "10.66.3.2", Team: 3, Tick: 120}
	if parsed.target != want {
		t.Errorf("target = %+v, want %+v", parsed.target, want)
	}
	if parsed.configPath != "/etc/checker.yaml" {
		t.Errorf("configPath = %q", parsed.configPath)
	}
}

func TestParseArgsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "usage"},
		{"too many", []string{"ip", "1", "2", "3"}, "usage"},
		{"team not a number", []string{"ip", "x", "2"}, "invalid team"},
		{"team out of range", []string{"ip", "65536", "2"}, "invalid team"},
		{"negative tick", []string{"--", "ip", "1", "-2"}, "invalid tick"},
		{"unknown flag", []string{"--bogus", "ip", "1", "2"}, "bogus"},
	}
	for _, test := range tests {
		_, err := parseArgs("checker", test.args, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("%s: error = %v, want containing %q", test.name, err, test.want)
		}
	}
}

func TestParseArgsHelpAndVersion(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	_, err := parseArgs("checker", []string{"--help"}, &output)
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("--help error = %v, want pflag.ErrHelp", err)
	}
	if !strings.Contains(output.String(), "<ip> <team> <tick>") {
		t.Errorf("usage output = %q", output.String())
	}

	parsed, err := parseArgs("checker", []string{"--version"}, &output)
	if err != nil || !parsed.showVersion {
		t.Errorf("--version = %+v, %v", parsed, err)
	}

	output.Reset()
	if err := run(t.Context(), &fakeChecker{}, "checker", []string{"--version"}, &output); err != nil {
		t.Fatalf("run --version: %v", err)
	}
	if !strings.HasPrefix(output.String(), "checker ") {
		t.Errorf("version output = %q", output.String())
	}
}

// placingChecker fetches and stores the flag of every tick it places.
type placingChecker struct {
	fakeChecker
}

func (p *placingChecker) PlaceFlag(ctx context.Context, session *Session, tick int) (Result, error) {
	flag, err := session.Flag(tick, nil)
	if err != nil {
		return ResultInvalid, err
	}
	if err := session.Store(fmt.Sprintf("flag_%d", tick), flag); err != nil {
		return ResultInvalid, err
	}
	return ResultOK, nil
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checker.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func restoreDefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
}

func TestRunLocal(t *testing.T) {
	t.Setenv(EnvSupervised, "")
	restoreDefaultLogger(t)

	statePath := filepath.Join(t.TempDir(), "_state.cbor")
	configPath := writeConfig(t, fmt.Sprintf("local:\n  state_file: %s\n  secret: LOCALSECRET\nlog:\n  level: warn\n", statePath))

	err := run(t.Context(), &placingChecker{}, "checker", []string{"--config", configPath, "127.0.0.1", "9", "14"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	local := newTestLocal(t, statePath)
	stored, err := control.Load[string](local, "flag_14")
	if err != nil {
		t.Fatalf("Load(flag_14): %v", err)
	}
	if !strings.HasPrefix(stored, "FAUST_") {
		t.Errorf("stored flag = %q", stored)
	}
}

func TestRunSupervised(t *testing.T) {
	t.Setenv(EnvSupervised, "1")
	restoreDefaultLogger(t)

	replyReader, replyWriter := testutil.Pipe(t)
	requestReader, requestWriter := testutil.Pipe(t)
	configPath := writeConfig(t, fmt.Sprintf("control:\n  inbound_fd: %d\n  outbound_fd: %d\nlog:\n  level: debug\n",
		dupDescriptor(t, replyReader), dupDescriptor(t, requestWriter)))

	// The runner's answer to the single FLAG request.
	if _, err := replyWriter.WriteString(`{"response":"FAUST_runner_flag"}` + "\n"); err != nil {
		t.Fatal(err)
	}

	err := run(t.Context(), &placingChecker{}, "checker", []string{"--config", configPath, "10.66.9.2", "9", "14"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var actions []control.Action
	var sawLog bool
	scanner := bufio.NewScanner(requestReader)
	for scanner.Scan() {
		action, param, err := control.DecodeRequest(scanner.Bytes())
		if err != nil {
			t.Fatalf("request %q: %v", scanner.Text(), err)
		}
		if action == control.ActionLog {
			sawLog = true
			continue
		}
		actions = append(actions, action)
		if action == control.ActionStore {
			stored, _ := control.DecodeParam[control.StoreParam](param)
			if stored.Key != "flag_14" || stored.Data != `"FAUST_runner_flag"` {
				t.Errorf("STORE param = %+v", stored)
			}
		}
		if action == control.ActionResult {
			if string(param) != "0" {
				t.Errorf("RESULT param = %s, want 0", param)
			}
			break
		}
	}

	want := []control.Action{control.ActionFlag, control.ActionStore, control.ActionResult}
	if fmt.Sprint(actions) != fmt.Sprint(want) {
		t.Errorf("actions = %v, want %v", actions, want)
	}
	if !sawLog {
		t.Error("no LOG requests; the session logger should forward to the runner")
	}
}
