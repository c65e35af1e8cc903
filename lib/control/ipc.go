// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bureau-foundation/checkerlib/lib/process"
)

// IPC is the stream-backed [Interface]. Requests are written to the
// outbound stream one line per call; FLAG and LOAD then block on
// exactly one reply line from the inbound stream.
//
// The protocol has no request identifiers, so a reply can only be
// attributed to the request written immediately before it. IPC holds
// a single mutex across each write (and, where applicable, the
// following read) so concurrent callers, such as a log handler used
// from several goroutines, cannot interleave on the streams.
//
// No deadlines are applied. A runner that never answers blocks the
// caller until the inbound stream is closed.
type IPC struct {
	mu    sync.Mutex
	in    *bufio.Reader
	out   io.Writer
	ready bool
	fatal func(error)
}

// Option configures an [IPC] at construction.
type Option func(*IPC)

// WithFatal replaces the handler invoked when [IPC.Log] cannot deliver
// a record. The default is [process.Fatal], which exits the process.
// Tests use this to observe the failure instead.
func WithFatal(fatal func(error)) Option {
	return func(c *IPC) {
		c.fatal = fatal
	}
}

// NewIPC returns an uninitialized IPC reading replies from in and
// writing requests to out. The IPC owns both streams from here on: no
// other code may read in or write out.
func NewIPC(in io.Reader, out io.Writer, options ...Option) *IPC {
	c := &IPC{
		in:    bufio.NewReader(in),
		out:   out,
		fatal: process.Fatal,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Initialize marks the interface ready. The streams are already open
// when they are injected, so there is nothing else to do.
func (c *IPC) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
	return nil
}

// CheckFlag sends a FLAG request and returns the flag from the reply.
// A null or non-string reply is a [*DecodeError], never an empty flag.
func (c *IPC) CheckFlag(tick uint32, payload []byte) (string, error) {
	line, err := c.roundTrip(ActionFlag, FlagParam{
		Tick:    tick,
		Payload: base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return "", err
	}
	flag, err := DecodeResponse[*string](line)
	if err != nil {
		return "", err
	}
	if flag == nil {
		return "", &DecodeError{Line: trimLine(line), Err: errors.New("null flag in response")}
	}
	return *flag, nil
}

// Store sends a STORE request carrying the JSON serialization of
// value. No reply is read.
func (c *IPC) Store(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &EncodeError{Action: ActionStore, Err: err}
	}
	return c.send(ActionStore, StoreParam{Key: key, Data: string(data)})
}

// Load sends a LOAD request and decodes the reply into target. A null
// reply yields [ErrNotFound].
func (c *IPC) Load(key string, target any) error {
	line, err := c.roundTrip(ActionLoad, key)
	if err != nil {
		return err
	}
	raw, err := DecodeResponse[json.RawMessage](line)
	if err != nil {
		return err
	}
	if err := decodeStored(raw, target); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading %q: %w", key, err)
		}
		return err
	}
	return nil
}

// Log sends a LOG request. If the request cannot be written the fatal
// handler is invoked; Log itself never returns an error.
func (c *IPC) Log(record LogRecord) {
	if err := c.send(ActionLog, record.Param()); err != nil {
		c.fatal(fmt.Errorf("forwarding log record to checker runner: %w", err))
	}
}

// SubmitResult sends a RESULT request carrying result. No reply is
// read.
func (c *IPC) SubmitResult(result any) error {
	return c.send(ActionResult, result)
}

// send writes one fire-and-forget request.
func (c *IPC) send(action Action, param any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(action, param)
}

// roundTrip writes one request and reads the single reply line that
// answers it.
func (c *IPC) roundTrip(action Action, param any) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(action, param); err != nil {
		return nil, err
	}

	line, err := c.in.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, &TransportError{Action: action, Op: "read", Err: err}
	}
	return line, nil
}

// writeLocked encodes and writes a request with a single Write call.
// Callers hold c.mu.
func (c *IPC) writeLocked(action Action, param any) error {
	if !c.ready {
		return ErrNotInitialized
	}
	data, err := EncodeRequest(action, param)
	if err != nil {
		return err
	}
	if _, err := c.out.Write(data); err != nil {
		return &TransportError{Action: action, Op: "write", Err: err}
	}
	return nil
}
