// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Checker-example checks a line-based notes service on TCP port 7777.
// It is the reference for writing a checker with lib/checker.
//
// The service understands three commands, one per line:
//
//	PING            -> PONG
//	PUT <id> <text> -> OK
//	GET <id>        -> <text>, or ERR when unknown
//
// PlaceFlag stores the tick's flag under a random note ID and keeps the
// ID in checker state; CheckFlag reads it back through that ID.
//
// Usage:
//
//	checker-example <ip> <team> <tick>
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bureau-foundation/checkerlib/lib/checker"
	"github.com/bureau-foundation/checkerlib/lib/control"
)

const servicePort = 7777

func main() {
	checker.Main(&notesChecker{port: servicePort})
}

type notesChecker struct {
	port int
}

// placement is what PlaceFlag remembers about a tick.
type placement struct {
	NoteID string `json:"note_id"`
}

func placementKey(tick int) string {
	return fmt.Sprintf("placement_%d", tick)
}

func (c *notesChecker) PlaceFlag(ctx context.Context, session *checker.Session, tick int) (checker.Result, error) {
	flag, err := session.Flag(tick, nil)
	if err != nil {
		return checker.ResultInvalid, err
	}
	noteID, err := randomID()
	if err != nil {
		return checker.ResultInvalid, err
	}

	conn, err := c.dial(ctx, session)
	if err != nil {
		return checker.ResultInvalid, err
	}
	defer conn.Close()

	reply, err := conn.command("PUT " + noteID + " " + flag)
	if err != nil {
		return checker.ResultInvalid, err
	}
	if reply != "OK" {
		session.Log().Warn("unexpected PUT reply", "reply", reply)
		return checker.ResultFaulty, nil
	}

	if err := session.Store(placementKey(tick), placement{NoteID: noteID}); err != nil {
		return checker.ResultInvalid, err
	}
	return checker.ResultOK, nil
}

func (c *notesChecker) CheckService(ctx context.Context, session *checker.Session) (checker.Result, error) {
	conn, err := c.dial(ctx, session)
	if err != nil {
		return checker.ResultInvalid, err
	}
	defer conn.Close()

	reply, err := conn.command("PING")
	if err != nil {
		return checker.ResultInvalid, err
	}
	if reply != "PONG" {
		session.Log().Warn("unexpected PING reply", "reply", reply)
		return checker.ResultFaulty, nil
	}
	return checker.ResultOK, nil
}

func (c *notesChecker) CheckFlag(ctx context.Context, session *checker.Session, tick int) (checker.Result, error) {
	placed, err := checker.Load[placement](session, placementKey(tick))
	if errors.Is(err, control.ErrNotFound) {
		// Placement failed or never ran for this tick.
		return checker.ResultFlagNotFound, nil
	}
	if err != nil {
		return checker.ResultInvalid, err
	}
	flag, err := session.Flag(tick, nil)
	if err != nil {
		return checker.ResultInvalid, err
	}

	conn, err := c.dial(ctx, session)
	if err != nil {
		return checker.ResultInvalid, err
	}
	defer conn.Close()

	reply, err := conn.command("GET " + placed.NoteID)
	if err != nil {
		return checker.ResultInvalid, err
	}
	if reply != flag {
		return checker.ResultFlagNotFound, nil
	}
	return checker.ResultOK, nil
}

// notesConn is one connection to the notes service.
type notesConn struct {
	net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func (c *notesChecker) dial(ctx context.Context, session *checker.Session) (*notesConn, error) {
	dialer := session.Dialer()
	conn, err := dialer.DialContext(ctx, "tcp", session.Addr(c.port))
	if err != nil {
		return nil, fmt.Errorf("connecting to notes service: %w", err)
	}
	return &notesConn{Conn: conn, reader: bufio.NewReader(conn), timeout: dialer.Timeout}, nil
}

// command sends one command line and returns the reply line.
func (c *notesConn) command(line string) (string, error) {
	if err := c.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(c, "%s\n", line); err != nil {
		return "", fmt.Errorf("sending %s: %w", strings.Fields(line)[0], err)
	}
	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading reply to %s: %w", strings.Fields(line)[0], err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

func randomID() (string, error) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}
