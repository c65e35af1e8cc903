// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/flag"
)

// Config identifies the checker run the supervisor answers for.
type Config struct {
	Team    uint16
	Service uint8
	Secret  []byte

	// Logger receives every LOG request as a structured record, plus
	// the supervisor's own diagnostics. Nil discards.
	Logger *slog.Logger
}

// Supervisor serves one checker's control channel and records what
// the checker sent.
type Supervisor struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	state   map[string]string
	flags   []control.FlagParam
	logs    []control.LogParam
	results []json.RawMessage
}

// New returns a Supervisor with empty state.
func New(config Config) *Supervisor {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		config: config,
		logger: logger,
		state:  make(map[string]string),
	}
}

// Serve reads requests from in and writes replies to out until in
// reaches end of stream (the checker exited or closed its outbound
// side) or ctx is cancelled. Cancellation is observed between
// requests; a read already blocked on in is not interrupted.
//
// A request line that cannot be decoded is a protocol violation and
// ends Serve with an error, since every later reply would be
// misattributed.
func (s *Supervisor) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading request: %w", err)
		}

		action, param, decodeErr := control.DecodeRequest(line)
		if decodeErr != nil {
			return fmt.Errorf("protocol violation: %w", decodeErr)
		}

		reply, replyErr := s.handle(action, param)
		if replyErr != nil {
			return fmt.Errorf("handling %s: %w", action, replyErr)
		}
		if action.ExpectsResponse() {
			data, err := control.EncodeResponse(reply)
			if err != nil {
				return err
			}
			if _, err := out.Write(data); err != nil {
				return fmt.Errorf("writing %s reply: %w", action, err)
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// handle applies one request and returns the reply value for actions
// that expect one. A nil reply is written as null.
func (s *Supervisor) handle(action control.Action, raw json.RawMessage) (any, error) {
	switch action {
	case control.ActionFlag:
		param, err := control.DecodeParam[control.FlagParam](raw)
		if err != nil {
			return nil, err
		}
		return s.handleFlag(param), nil

	case control.ActionStore:
		param, err := control.DecodeParam[control.StoreParam](raw)
		if err != nil {
			return nil, err
		}
		if !json.Valid([]byte(param.Data)) {
			s.logger.Warn("stored data is not valid JSON", "key", param.Key)
		}
		s.mu.Lock()
		s.state[param.Key] = param.Data
		s.mu.Unlock()
		return nil, nil

	case control.ActionLoad:
		key, err := control.DecodeParam[string](raw)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		data, ok := s.state[key]
		s.mu.Unlock()
		if !ok {
			return nil, nil
		}
		return data, nil

	case control.ActionLog:
		param, err := control.DecodeParam[control.LogParam](raw)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.logs = append(s.logs, param)
		s.mu.Unlock()
		s.logger.Log(context.Background(), slogLevel(param.Level), param.Message,
			"func", param.FuncName,
			"path", param.Pathname,
			"line", param.Lineno,
		)
		return nil, nil

	case control.ActionResult:
		s.mu.Lock()
		s.results = append(s.results, append(json.RawMessage(nil), raw...))
		s.mu.Unlock()
		s.logger.Info("checker submitted result", "result", string(raw))
		return nil, nil
	}
	return nil, fmt.Errorf("unhandled action %q", string(action))
}

// handleFlag returns the flag for a FLAG request, or nil when the
// request cannot produce one. A nil flag is still answered (as null) so
// the channel stays in step.
func (s *Supervisor) handleFlag(param control.FlagParam) any {
	s.mu.Lock()
	s.flags = append(s.flags, param)
	s.mu.Unlock()

	payload, err := base64.StdEncoding.DecodeString(param.Payload)
	if err != nil {
		s.logger.Error("FLAG payload is not base64", "tick", param.Tick, "error", err)
		return nil
	}
	tick, err := flag.WireTick(param.Tick)
	if err != nil {
		s.logger.Error("FLAG tick out of range", "tick", param.Tick, "error", err)
		return nil
	}
	generated, err := flag.Generate(flag.Info{
		Tick:    tick,
		Team:    s.config.Team,
		Service: s.config.Service,
		Payload: payload,
	}, s.config.Secret)
	if err != nil {
		s.logger.Error("generating flag", "tick", param.Tick, "error", err)
		return nil
	}
	return generated
}

// slogLevel maps a wire level code back onto slog levels.
func slogLevel(code uint32) slog.Level {
	switch {
	case code >= 40:
		return slog.LevelError
	case code >= 30:
		return slog.LevelWarn
	case code >= 20:
		return slog.LevelInfo
	case code >= 10:
		return slog.LevelDebug
	default:
		return control.SlogLevelTrace
	}
}
