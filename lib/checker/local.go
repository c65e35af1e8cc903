// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/checkerlib/lib/codec"
	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/flag"
)

// localStateVersion is bumped on incompatible changes to the state
// file layout.
const localStateVersion = 1

// localState is the CBOR layout of the local state file. Entries
// holds each stored value's JSON serialization, the same bytes a
// runner would receive in a STORE request. Digest is the BLAKE3 hash
// of the deterministic CBOR encoding of Entries.
type localState struct {
	Version int               `cbor:"version"`
	Entries map[string][]byte `cbor:"entries"`
	Digest  []byte            `cbor:"digest"`
}

// entriesDigest hashes entries in their canonical encoding, so equal
// maps hash equally regardless of insertion order.
func entriesDigest(entries map[string][]byte) ([]byte, error) {
	encoded, err := codec.Marshal(entries)
	if err != nil {
		return nil, err
	}
	digest := blake3.Sum256(encoded)
	return digest[:], nil
}

// LocalConfig configures a [Local].
type LocalConfig struct {
	// Team and Service are bound into generated flags.
	Team    uint16
	Service uint8

	// Secret authenticates generated flags.
	Secret []byte

	// StatePath is the state file. Created on first Store.
	StatePath string

	// Logger receives LOG records and the submitted result. Nil
	// discards.
	Logger *slog.Logger
}

// Local is the [control.Interface] used when no runner is present.
// It answers everything itself: flags come from lib/flag, state goes
// to a file, logs and the result go to a logger.
type Local struct {
	config LocalConfig
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

// NewLocal returns an uninitialized Local.
func NewLocal(config LocalConfig) *Local {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Local{config: config, logger: logger}
}

func (l *Local) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = true
	return nil
}

func (l *Local) CheckFlag(tick uint32, payload []byte) (string, error) {
	if err := l.checkReady(); err != nil {
		return "", err
	}
	flagTick, err := flag.WireTick(tick)
	if err != nil {
		return "", err
	}
	return flag.Generate(flag.Info{
		Tick:    flagTick,
		Team:    l.config.Team,
		Service: l.config.Service,
		Payload: payload,
	}, l.config.Secret)
}

func (l *Local) Store(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &control.EncodeError{Action: control.ActionStore, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready {
		return control.ErrNotInitialized
	}

	state, err := l.readState()
	if err != nil {
		return err
	}
	state.Entries[key] = data
	return l.writeState(state)
}

func (l *Local) Load(key string, target any) error {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return control.ErrNotInitialized
	}
	state, err := l.readState()
	l.mu.Unlock()
	if err != nil {
		return err
	}

	data, ok := state.Entries[key]
	if !ok {
		return fmt.Errorf("loading %q: %w", key, control.ErrNotFound)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &control.DecodeError{Line: data, Err: err}
	}
	return nil
}

func (l *Local) Log(record control.LogRecord) {
	l.logger.Log(context.Background(), slogLevel(record.Level), record.Message,
		"func", record.Module,
		"path", record.File,
		"line", record.Line,
	)
}

func (l *Local) SubmitResult(result any) error {
	if err := l.checkReady(); err != nil {
		return err
	}
	l.logger.Info("check result", "result", result)
	return nil
}

func (l *Local) checkReady() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready {
		return control.ErrNotInitialized
	}
	return nil
}

// readState reads the state file. A missing file is empty state.
// Callers hold l.mu.
func (l *Local) readState() (*localState, error) {
	state := &localState{Version: localStateVersion, Entries: make(map[string][]byte)}

	data, err := os.ReadFile(l.config.StatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local state: %w", err)
	}

	if err := codec.Unmarshal(data, state); err != nil {
		if len(data) <= 256 {
			return nil, fmt.Errorf("decoding local state %s: %w (content %s)", l.config.StatePath, err, codec.Describe(data))
		}
		return nil, fmt.Errorf("decoding local state %s: %w", l.config.StatePath, err)
	}
	if state.Version != localStateVersion {
		return nil, fmt.Errorf("local state %s has version %d, want %d", l.config.StatePath, state.Version, localStateVersion)
	}
	if state.Entries == nil {
		state.Entries = make(map[string][]byte)
	}
	digest, err := entriesDigest(state.Entries)
	if err != nil {
		return nil, fmt.Errorf("hashing local state: %w", err)
	}
	if !bytes.Equal(digest, state.Digest) {
		return nil, fmt.Errorf("local state %s is corrupt: digest mismatch", l.config.StatePath)
	}
	return state, nil
}

// writeState replaces the state file atomically. Callers hold l.mu.
func (l *Local) writeState(state *localState) error {
	digest, err := entriesDigest(state.Entries)
	if err != nil {
		return fmt.Errorf("hashing local state: %w", err)
	}
	state.Digest = digest

	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding local state: %w", err)
	}

	directory := filepath.Dir(l.config.StatePath)
	temporary, err := os.CreateTemp(directory, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("writing local state: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing local state: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing local state: %w", err)
	}
	if err := os.Rename(temporary.Name(), l.config.StatePath); err != nil {
		return fmt.Errorf("writing local state: %w", err)
	}
	return nil
}

// slogLevel maps a control level onto slog.
func slogLevel(level control.Level) slog.Level {
	switch level {
	case control.LevelTrace:
		return control.SlogLevelTrace
	case control.LevelDebug:
		return slog.LevelDebug
	case control.LevelInfo:
		return slog.LevelInfo
	case control.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
