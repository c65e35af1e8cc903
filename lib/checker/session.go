// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bureau-foundation/checkerlib/lib/control"
	"github.com/bureau-foundation/checkerlib/lib/flag"
)

// Timeout is the network timeout used when a Session has none.
const Timeout = 10 * time.Second

// Target identifies what a checker run checks.
type Target struct {
	// IP is the address of the team's vulnbox.
	IP string

	// Team is the team's numeric ID.
	Team int

	// Tick is the current tick.
	Tick int
}

// Session is what a [Checker] gets to work with during one run: the
// target, the control channel, a logger, and network defaults.
type Session struct {
	Target  Target
	Control control.Interface

	// Logger may be nil, in which case nothing is logged.
	Logger *slog.Logger

	// Timeout bounds connections made through Dialer and HTTPClient.
	// Zero means [Timeout].
	Timeout time.Duration
}

// Log returns the session logger, or a logger that discards when
// Logger is nil.
func (s *Session) Log() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Session) timeout() time.Duration {
	if s.Timeout <= 0 {
		return Timeout
	}
	return s.Timeout
}

// Flag returns the flag of tick for this team and service. payload is
// bound into the flag; it must be empty or 8 bytes. tick must lie in
// [0, flag.MaxTick].
func (s *Session) Flag(tick int, payload []byte) (string, error) {
	if tick < 0 || int64(tick) > flag.MaxTick {
		return "", fmt.Errorf("tick %d out of range", tick)
	}
	return s.Control.CheckFlag(uint32(tick), payload)
}

// Store persists value under key for later runs of this checker
// against the same team.
func (s *Session) Store(key string, value any) error {
	return s.Control.Store(key, value)
}

// Load retrieves a value stored by an earlier [Session.Store].
// errors.Is(err, control.ErrNotFound) reports a key never stored.
func Load[D any](s *Session, key string) (D, error) {
	return control.Load[D](s.Control, key)
}

// Addr joins the target IP with port.
func (s *Session) Addr(port int) string {
	return net.JoinHostPort(s.Target.IP, strconv.Itoa(port))
}

// Dialer returns a dialer bounded by the session timeout.
func (s *Session) Dialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   s.timeout(),
		KeepAlive: s.timeout(),
	}
}

// HTTPClient returns an HTTP client whose requests, including
// connection setup, are bounded by the session timeout.
func (s *Session) HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = s.Dialer().DialContext
	return &http.Client{
		Transport: transport,
		Timeout:   s.timeout(),
	}
}
