// Package logging defines the Logger collaborator consumed by the router and
// middleware, plus a zerolog-backed default implementation.
//
// Components depend on the Logger protocol, not on a concrete logger. The
// router never formats console output itself; it emits structured events.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the canonical protocol for structured logging.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	// Bind returns a child logger with the given fields attached to every event.
	Bind(fields ...any) Logger
}

// =============================================================================
// ZEROLOG-BACKED LOGGER
// =============================================================================

// zeroLogger adapts zerolog to the Logger protocol.
type zeroLogger struct {
	zl zerolog.Logger
}

// New creates a Logger writing JSON events to w at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	return &zeroLogger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewDefault creates a Logger writing to stderr at info level.
func NewDefault() Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}

func (l *zeroLogger) Debug(msg string, fields ...any) { emit(l.zl.Debug(), msg, fields) }
func (l *zeroLogger) Info(msg string, fields ...any)  { emit(l.zl.Info(), msg, fields) }
func (l *zeroLogger) Warn(msg string, fields ...any)  { emit(l.zl.Warn(), msg, fields) }
func (l *zeroLogger) Error(msg string, fields ...any) { emit(l.zl.Error(), msg, fields) }

func (l *zeroLogger) Bind(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zeroLogger{zl: ctx.Logger()}
}

// emit writes one event with alternating key/value fields.
// A trailing key without a value is dropped.
func emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

// =============================================================================
// NOP LOGGER
// =============================================================================

// nopLogger discards everything. Used as the default when no logger is wired.
type nopLogger struct{}

// NewNop returns a Logger that discards all events.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (n nopLogger) Bind(...any) Logger { return n }

// Ensure implementations satisfy the Logger protocol.
var (
	_ Logger = (*zeroLogger)(nil)
	_ Logger = nopLogger{}
)
