// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// SlogLevelTrace is the slog level that maps to [LevelTrace] on the
// wire. slog has no trace level of its own.
const SlogLevelTrace = slog.Level(-8)

// Handler is an slog.Handler that forwards every enabled record to
// [Interface.Log]. Attributes are rendered as key=value pairs after the
// message, since the runner's log record has no structured fields.
//
//	iface := control.NewIPC(inbound, outbound)
//	slog.SetDefault(slog.New(control.NewHandler(iface, nil)))
type Handler struct {
	control Interface
	level   slog.Leveler

	// prefix holds the pre-rendered attributes from WithAttrs.
	prefix string
	groups []string
}

// NewHandler returns a Handler that logs through control. Only
// options.Level is honored; a nil options or level means slog.LevelInfo.
func NewHandler(control Interface, options *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if options != nil && options.Level != nil {
		level = options.Level
	}
	return &Handler{control: control, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var builder strings.Builder
	builder.WriteString(record.Message)
	builder.WriteString(h.prefix)
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&builder, h.groups, attr)
		return true
	})

	entry := LogRecord{
		Level:   levelFromSlog(record.Level),
		Message: builder.String(),
	}
	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		entry.Module = frame.Function
		entry.File = frame.File
		if frame.Line > 0 {
			entry.Line = uint32(frame.Line)
		}
	}

	h.control.Log(entry)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var builder strings.Builder
	builder.WriteString(h.prefix)
	for _, attr := range attrs {
		appendAttr(&builder, h.groups, attr)
	}
	clone := *h
	clone.prefix = builder.String()
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// levelFromSlog buckets an slog level into the five wire levels.
func levelFromSlog(level slog.Level) Level {
	switch {
	case level < slog.LevelDebug:
		return LevelTrace
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

func appendAttr(builder *strings.Builder, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		if len(members) == 0 {
			return
		}
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range members {
			appendAttr(builder, nested, member)
		}
		return
	}

	builder.WriteByte(' ')
	for _, group := range groups {
		builder.WriteString(group)
		builder.WriteByte('.')
	}
	builder.WriteString(attr.Key)
	builder.WriteByte('=')
	builder.WriteString(formatValue(attr.Value))
}

func formatValue(value slog.Value) string {
	var text string
	switch value.Kind() {
	case slog.KindString:
		text = value.String()
	case slog.KindTime:
		text = value.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			text = err.Error()
		} else {
			text = fmt.Sprint(value.Any())
		}
	default:
		text = value.String()
	}
	if text == "" || strings.ContainsAny(text, " \t\r\n\"=") {
		return strconv.Quote(text)
	}
	return text
}
