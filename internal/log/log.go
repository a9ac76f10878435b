// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package log exports logging related types and functions.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Fields carries the structured context of a single log call.
type Fields = map[string]interface{}

// Base supports logging at various log levels.
//
// Every method receives the message and its structured context. The context
// may be nil.
type Base interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Notice(msg string, fields Fields)
	Warning(msg string, fields Fields)
	Error(msg string, fields Fields)
	Critical(msg string, fields Fields)
	Alert(msg string, fields Fields)
	Emergency(msg string, fields Fields)
}

// slog levels for the severities slog has no name for.
const (
	slogNotice    = slog.LevelInfo + 2
	slogCritical  = slog.LevelError + 4
	slogAlert     = slog.LevelError + 6
	slogEmergency = slog.LevelError + 8
)

// baseLogger is a wrapper object around slog.Logger from the standard library.
// It supports logging at all levels.
type baseLogger struct {
	*slog.Logger
}

func (l *baseLogger) emit(level slog.Level, msg string, fields Fields) {
	l.Logger.Log(context.Background(), level, msg, attrs(fields)...)
}

// Debug logs a message at Debug level.
func (l *baseLogger) Debug(msg string, fields Fields) { l.emit(slog.LevelDebug, msg, fields) }

// Info logs a message at Info level.
func (l *baseLogger) Info(msg string, fields Fields) { l.emit(slog.LevelInfo, msg, fields) }

// Notice logs a message at Notice level.
func (l *baseLogger) Notice(msg string, fields Fields) { l.emit(slogNotice, msg, fields) }

// Warning logs a message at Warning level.
func (l *baseLogger) Warning(msg string, fields Fields) { l.emit(slog.LevelWarn, msg, fields) }

// Error logs a message at Error level.
func (l *baseLogger) Error(msg string, fields Fields) { l.emit(slog.LevelError, msg, fields) }

// Critical logs a message at Critical level.
func (l *baseLogger) Critical(msg string, fields Fields) { l.emit(slogCritical, msg, fields) }

// Alert logs a message at Alert level.
func (l *baseLogger) Alert(msg string, fields Fields) { l.emit(slogAlert, msg, fields) }

// Emergency logs a message at Emergency level.
func (l *baseLogger) Emergency(msg string, fields Fields) { l.emit(slogEmergency, msg, fields) }

// attrs turns fields into slog arguments sorted by key so output is stable.
func attrs(fields Fields) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, fields[k]))
	}
	return args
}

func levelName(l slog.Level) string {
	switch l {
	case slogNotice:
		return "NOTICE"
	case slogCritical:
		return "CRITICAL"
	case slogAlert:
		return "ALERT"
	case slogEmergency:
		return "EMERGENCY"
	}
	return l.String()
}

// newBase creates and returns a new instance of baseLogger.
// The base never filters; filtering is done by Logger.
func newBase(out io.Writer) *baseLogger {
	h := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slog.Level(-8),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelName(l))
				}
			}
			return a
		},
	})
	return &baseLogger{
		slog.New(h).With(slog.String("component", "cronqueue"), slog.Int("pid", os.Getpid())),
	}
}

// NewBase returns the default Base writing text records to out.
func NewBase(out io.Writer) Base {
	return newBase(out)
}

// NewLogger creates and returns a new instance of Logger.
// Log level is set to InfoLevel by default.
func NewLogger(base Base) *Logger {
	if base == nil {
		base = newBase(os.Stderr)
	}
	return &Logger{base: base, level: InfoLevel}
}

// Logger logs message to io.Writer at various log levels.
type Logger struct {
	base Base

	mu sync.Mutex
	// Minimum log level for this logger.
	// Message with level lower than this level won't be outputted.
	level Level
}

// Level is a logging severity. The numeric values follow the PSR-3/Monolog
// scale so that a configured threshold carries over between systems.
type Level int32

const (
	// DebugLevel is the lowest level of logging.
	// Debug logs are intended for debugging and development purposes.
	DebugLevel Level = 100

	// InfoLevel is used for general informational log messages.
	InfoLevel Level = 200

	// NoticeLevel is used for normal but significant events.
	NoticeLevel Level = 250

	// WarnLevel is used for undesired but relatively expected events,
	// which may indicate a problem.
	WarnLevel Level = 300

	// ErrorLevel is used for undesired and unexpected events that
	// the program can recover from.
	ErrorLevel Level = 400

	// CriticalLevel is used for critical conditions such as an unavailable store.
	CriticalLevel Level = 500

	// AlertLevel is used when action must be taken immediately.
	AlertLevel Level = 550

	// EmergencyLevel is used when the system is unusable.
	EmergencyLevel Level = 600
)

// String is part of the fmt.Stringer interface.
//
// Used for testing and debugging purposes.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case NoticeLevel:
		return "notice"
	case WarnLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	case AlertLevel:
		return "alert"
	case EmergencyLevel:
		return "emergency"
	default:
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

// ParseLevel returns the level named by s. Names are case insensitive and
// "warn" is accepted for "warning".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "critical":
		return CriticalLevel, nil
	case "alert":
		return AlertLevel, nil
	case "emergency":
		return EmergencyLevel, nil
	}
	return 0, fmt.Errorf("unsupported log level %q", s)
}

// canLogAt reports whether logger can log at level v.
func (l *Logger) canLogAt(v Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return v >= l.level
}

// merge flattens the optional field maps of a call into one.
func merge(fields []Fields) Fields {
	switch len(fields) {
	case 0:
		return nil
	case 1:
		return fields[0]
	}
	out := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	if !l.canLogAt(DebugLevel) {
		return
	}
	l.base.Debug(msg, merge(fields))
}

func (l *Logger) Info(msg string, fields ...Fields) {
	if !l.canLogAt(InfoLevel) {
		return
	}
	l.base.Info(msg, merge(fields))
}

func (l *Logger) Notice(msg string, fields ...Fields) {
	if !l.canLogAt(NoticeLevel) {
		return
	}
	l.base.Notice(msg, merge(fields))
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	if !l.canLogAt(WarnLevel) {
		return
	}
	l.base.Warning(msg, merge(fields))
}

func (l *Logger) Error(msg string, fields ...Fields) {
	if !l.canLogAt(ErrorLevel) {
		return
	}
	l.base.Error(msg, merge(fields))
}

func (l *Logger) Critical(msg string, fields ...Fields) {
	if !l.canLogAt(CriticalLevel) {
		return
	}
	l.base.Critical(msg, merge(fields))
}

func (l *Logger) Alert(msg string, fields ...Fields) {
	if !l.canLogAt(AlertLevel) {
		return
	}
	l.base.Alert(msg, merge(fields))
}

func (l *Logger) Emergency(msg string, fields ...Fields) {
	if !l.canLogAt(EmergencyLevel) {
		return
	}
	l.base.Emergency(msg, merge(fields))
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// SetLevel sets the logger level.
// It panics if v is less than DebugLevel or greater than EmergencyLevel.
func (l *Logger) SetLevel(v Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v < DebugLevel || v > EmergencyLevel {
		panic("log: invalid log level")
	}
	l.level = v
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}
