// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Checker-runner-mock runs one checker binary the way the checker
// runner does and prints what it submitted. The checker gets the
// control channel on descriptors 3 (replies) and 4 (requests) and
// CTF_CHECKERSCRIPT in its environment, so it runs in supervised mode
// exactly as in production. Flags are generated for --team and
// --service with --secret; state lives in memory, optionally seeded
// from and saved back to a JSONC file so consecutive ticks can be
// chained.
//
// Usage:
//
//	checker-runner-mock [flags] <checker> <ip>
//
// The process exits non-zero if the checker fails, violates the
// protocol, or exits without submitting a result.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/checkerlib/lib/checker"
	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/process"
	"github.com/bureau-foundation/checkerlib/lib/supervisor"
	"github.com/bureau-foundation/checkerlib/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		process.Fatal(err)
	}
}

// options is the parsed command line.
type options struct {
	checker string
	ip      string

	team      uint16
	service   uint8
	tick      int
	secret    string
	statePath string
	saveState bool
	verbose   bool
}

func parseOptions(args []string, output io.Writer) (*options, bool, error) {
	flags := pflag.NewFlagSet("checker-runner-mock", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "usage: checker-runner-mock [flags] <checker> <ip>\n\n")
		flags.PrintDefaults()
	}

	var parsed options
	var showVersion bool
	flags.Uint16Var(&parsed.team, "team", 1, "team ID passed to the checker and bound into flags")
	flags.Uint8Var(&parsed.service, "service", 42, "service ID bound into flags")
	flags.IntVar(&parsed.tick, "tick", 0, "tick passed to the checker")
	flags.StringVar(&parsed.secret, "secret", "TOPSECRET", "flag secret")
	flags.StringVar(&parsed.statePath, "state", "", "JSONC file seeding stored state")
	flags.BoolVar(&parsed.saveState, "save-state", false, "write the final state back to --state")
	flags.BoolVarP(&parsed.verbose, "verbose", "v", false, "show the checker's debug and trace logs")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return nil, false, err
	}
	if showVersion {
		return nil, true, nil
	}

	positional := flags.Args()
	if len(positional) != 2 {
		return nil, false, fmt.Errorf("usage: checker-runner-mock [flags] <checker> <ip> (got %d arguments)", len(positional))
	}
	parsed.checker, parsed.ip = positional[0], positional[1]
	if parsed.tick < 0 {
		return nil, false, fmt.Errorf("--tick must be >= 0, got %d", parsed.tick)
	}
	if parsed.saveState && parsed.statePath == "" {
		return nil, false, errors.New("--save-state requires --state")
	}
	return &parsed, false, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	parsed, showVersion, err := parseOptions(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if showVersion {
		version.Print(stdout, "checker-runner-mock")
		return nil
	}

	level := slog.LevelInfo
	if parsed.verbose {
		level = control.SlogLevelTrace
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	server := supervisor.New(supervisor.Config{
		Team:    parsed.team,
		Service: parsed.service,
		Secret:  []byte(parsed.secret),
		Logger:  logger,
	})
	if parsed.statePath != "" {
		if err := server.LoadStateFile(parsed.statePath); err != nil && !(parsed.saveState && errors.Is(err, os.ErrNotExist)) {
			return err
		}
	}

	if err := launch(ctx, parsed, server, stderr); err != nil {
		return err
	}

	results := server.Results()
	if len(results) == 0 {
		return errors.New("checker exited without submitting a result")
	}
	if len(results) > 1 {
		logger.Warn("checker submitted more than one result, reporting the last", "count", len(results))
	}
	final := results[len(results)-1]
	fmt.Fprintf(stdout, "result: %s\n", resultStyle(stdout, final).Render(describeResult(final)))

	if parsed.saveState {
		if err := saveState(parsed.statePath, server.State()); err != nil {
			return err
		}
	}
	return nil
}

// launch starts the checker with the control channel on descriptors 3
// and 4, serves it until it exits, and reports the first failure of
// either side.
func launch(ctx context.Context, parsed *options, server *supervisor.Supervisor, stderr io.Writer) error {
	// replies: runner writes, checker reads on fd 3.
	replyReader, replyWriter, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("creating reply pipe: %w", err)
	}
	defer replyWriter.Close()
	// requests: checker writes on fd 4, runner reads.
	requestReader, requestWriter, err := os.Pipe()
	if err != nil {
		replyReader.Close()
		return fmt.Errorf("creating request pipe: %w", err)
	}
	defer requestReader.Close()

	command := exec.CommandContext(ctx, parsed.checker,
		parsed.ip,
		strconv.Itoa(int(parsed.team)),
		strconv.Itoa(parsed.tick),
	)
	command.Env = append(os.Environ(), checker.EnvSupervised+"=1")
	command.Stdout = stderr
	command.Stderr = stderr
	command.ExtraFiles = []*os.File{replyReader, requestWriter}

	startErr := command.Start()
	// The child holds its own copies; ours must go so that the request
	// stream ends when the checker exits.
	replyReader.Close()
	requestWriter.Close()
	if startErr != nil {
		return fmt.Errorf("starting checker %s: %w", parsed.checker, startErr)
	}

	served := make(chan error, 1)
	go func() {
		err := server.Serve(ctx, requestReader, replyWriter)
		// Unblock a checker still writing requests or waiting for a
		// reply after Serve gave up on the stream.
		requestReader.Close()
		replyWriter.Close()
		served <- err
	}()

	waitErr := command.Wait()
	serveErr := <-served
	if waitErr != nil {
		return fmt.Errorf("checker %s: %w", parsed.checker, waitErr)
	}
	return serveErr
}

// describeResult renders a submitted result, naming the standard
// result codes.
func describeResult(raw json.RawMessage) string {
	var code int
	if err := json.Unmarshal(raw, &code); err != nil {
		return string(raw)
	}
	return fmt.Sprintf("%s (%d)", checker.Result(code), code)
}

// resultStyle colors a result for w: green for OK, yellow for
// RECOVERING, red for anything else. Output that is not a terminal
// stays plain.
func resultStyle(w io.Writer, raw json.RawMessage) lipgloss.Style {
	renderer := lipgloss.NewRenderer(w)
	if file, ok := w.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		renderer.SetColorProfile(termenv.Ascii)
	}

	color := lipgloss.Color("1")
	var code int
	if json.Unmarshal(raw, &code) == nil {
		switch checker.Result(code) {
		case checker.ResultOK:
			color = lipgloss.Color("2")
		case checker.ResultRecovering:
			color = lipgloss.Color("3")
		}
	}
	return renderer.NewStyle().Bold(true).Foreground(color)
}

// saveState writes state as an indented JSON object that
// [supervisor.Supervisor.LoadStateFile] reads back. Data that is not
// valid JSON is kept as a string.
func saveState(path string, state map[string]string) error {
	entries := make(map[string]json.RawMessage, len(state))
	for key, data := range state {
		if json.Valid([]byte(data)) {
			entries[key] = json.RawMessage(data)
			continue
		}
		quoted, err := json.Marshal(data)
		if err != nil {
			return err
		}
		entries[key] = quoted
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}
