// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import "fmt"

// Level is the severity of a [LogRecord].
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Code returns the numeric level the runner expects on the wire. The
// values line up with the runner's logging module, which is why Trace
// sits at 5 rather than 0.
func (l Level) Code() uint32 {
	switch l {
	case LevelTrace:
		return 5
	case LevelDebug:
		return 10
	case LevelInfo:
		return 20
	case LevelWarn:
		return 30
	default:
		return 40
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// LogRecord is one log event as handed to [Interface.Log]. Module,
// File, and Line describe where the event originated; leave them empty
// (zero) when unknown.
type LogRecord struct {
	Level   Level
	Message string
	Module  string
	File    string
	Line    uint32
}

// Param converts the record to its wire parameter.
func (r LogRecord) Param() LogParam {
	return LogParam{
		Level:    r.Level.Code(),
		Message:  r.Message,
		FuncName: r.Module,
		Pathname: r.File,
		Lineno:   r.Line,
	}
}
