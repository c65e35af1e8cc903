// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/checkerlib/lib/config"
	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/process"
	"github.com/bureau-foundation/checkerlib/lib/version"
)

// Main is the entrypoint of a checker binary. It never returns
// normally on failure: errors end the process through process.Fatal.
//
//	func main() {
//	    checker.Main(&myChecker{})
//	}
func Main(checker Checker) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, checker, os.Args[0], os.Args[1:], os.Stdout); err != nil {
		stop()
		process.Fatal(err)
	}
}

// invocation is the parsed command line.
type invocation struct {
	target      Target
	configPath  string
	showVersion bool
}

var errUsage = errors.New("usage: <ip> <team> <tick>")

func parseArgs(name string, args []string, output io.Writer) (*invocation, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "usage: %s [flags] <ip> <team> <tick>\n\n", name)
		flags.PrintDefaults()
	}

	var parsed invocation
	flags.StringVar(&parsed.configPath, "config", "", "path to the checker config file (default: $"+config.EnvConfig+")")
	flags.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if parsed.showVersion {
		return &parsed, nil
	}

	positional := flags.Args()
	if len(positional) != 3 {
		return nil, fmt.Errorf("%w (got %d arguments)", errUsage, len(positional))
	}
	parsed.target.IP = positional[0]

	team, err := strconv.Atoi(positional[1])
	if err != nil || team < 0 || team > 65535 {
		return nil, fmt.Errorf("invalid team id %q", positional[1])
	}
	parsed.target.Team = team

	tick, err := strconv.Atoi(positional[2])
	if err != nil || tick < 0 {
		return nil, fmt.Errorf("invalid tick %q", positional[2])
	}
	parsed.target.Tick = tick

	return &parsed, nil
}

func run(ctx context.Context, checker Checker, name string, args []string, output io.Writer) error {
	parsed, err := parseArgs(name, args, output)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if parsed.showVersion {
		version.Print(output, name)
		return nil
	}

	cfg, err := loadConfig(parsed.configPath)
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	timeout, err := cfg.NetworkTimeout()
	if err != nil {
		return err
	}

	var iface control.Interface
	var logger *slog.Logger
	if Supervised() {
		ipc, err := OpenInherited(cfg)
		if err != nil {
			return err
		}
		iface = ipc
		logger = slog.New(control.NewHandler(ipc, &slog.HandlerOptions{Level: level}))
	} else {
		logger = NewLogger(level)
		iface = NewLocal(LocalConfig{
			Team:      uint16(parsed.target.Team),
			Service:   cfg.Local.Service,
			Secret:    []byte(cfg.Local.Secret),
			StatePath: cfg.Local.StateFile,
			Logger:    logger,
		})
	}
	// Also routes the standard log package, which third-party code
	// used by checkers may write to.
	slog.SetDefault(logger)

	if err := iface.Initialize(); err != nil {
		return fmt.Errorf("initializing control interface: %w", err)
	}

	session := &Session{
		Target:  parsed.target,
		Control: iface,
		Logger:  logger,
		Timeout: timeout,
	}
	_, err = Run(ctx, checker, session)
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
