// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// connErrnos are the errno values that mean the service (or the path
// to it) is down rather than that the checker is broken.
var connErrnos = []unix.Errno{
	unix.ECONNABORTED,
	unix.ECONNREFUSED,
	unix.ECONNRESET,
	unix.EHOSTDOWN,
	unix.EHOSTUNREACH,
	unix.ENETDOWN,
	unix.ENETRESET,
	unix.ENETUNREACH,
	unix.EPIPE,
	unix.ETIMEDOUT,
}

// IsConnError reports whether err, anywhere in its chain, is a network
// timeout or one of the connection-level errnos. A context error that
// no network operation wrapped is not a connection error. Errors from net,
// net/http (via *url.Error), and os all unwrap to these.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}

	// context.DeadlineExceeded is itself a net.Error, but a bare
	// context expiry says nothing about the service.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && error(netErr) != context.DeadlineExceeded {
		return true
	}

	for _, errno := range connErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
