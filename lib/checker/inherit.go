// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/checkerlib/lib/config"
	"github.com/bureau-foundation/checkerlib/lib/control"
)

// EnvSupervised is set by the runner for every checker it starts. Its
// presence selects supervised mode.
const EnvSupervised = "CTF_CHECKERSCRIPT"

// Supervised reports whether the process was started by a runner.
func Supervised() bool {
	return os.Getenv(EnvSupervised) != ""
}

// OpenInherited wraps the inherited control descriptors named in cfg
// in a [control.IPC]. Each descriptor must be open; a runner that did
// not pass them is a setup error, not something to paper over.
func OpenInherited(cfg *config.Config, options ...control.Option) (*control.IPC, error) {
	inbound, err := openDescriptor(cfg.Control.InboundFD, "control-in")
	if err != nil {
		return nil, err
	}
	outbound, err := openDescriptor(cfg.Control.OutboundFD, "control-out")
	if err != nil {
		inbound.Close()
		return nil, err
	}
	return control.NewIPC(inbound, outbound, options...), nil
}

func openDescriptor(fd int, name string) (*os.File, error) {
	file := os.NewFile(uintptr(fd), name)
	if file == nil {
		return nil, fmt.Errorf("control descriptor %d is invalid", fd)
	}
	if _, err := file.Stat(); err != nil {
		return nil, fmt.Errorf("control descriptor %d is not open: %w", fd, err)
	}
	return file, nil
}
