// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package cronqueue

import (
	"fmt"
	"strings"

	"github.com/hemant/cronqueue/internal/log"
)

// Logger supports logging at various log levels.
//
// Each method receives a message and its structured context, which may be nil.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Notice(msg string, fields map[string]interface{})
	Warning(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Critical(msg string, fields map[string]interface{})
	Alert(msg string, fields map[string]interface{})
	Emergency(msg string, fields map[string]interface{})
}

// LogLevel represents logging level.
//
// The numeric values follow the PSR-3 scale: calls below the configured level
// are suppressed.
type LogLevel int32

const (
	// Note: reserving value zero to differentiate unspecified case.
	level_unspecified LogLevel = 0

	DebugLevel     LogLevel = 100
	InfoLevel      LogLevel = 200
	NoticeLevel    LogLevel = 250
	WarnLevel      LogLevel = 300
	ErrorLevel     LogLevel = 400
	CriticalLevel  LogLevel = 500
	AlertLevel     LogLevel = 550
	EmergencyLevel LogLevel = 600
)

// String is part of the flag.Value interface.
func (l *LogLevel) String() string {
	switch *l {
	case level_unspecified:
		return "info"
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
	}
	panic(fmt.Sprintf("cronqueue: unexpected log level: %v", int32(*l)))
}

// Set is part of the flag.Value interface.
func (l *LogLevel) Set(val string) error {
	v, err := log.ParseLevel(strings.ToLower(val))
	if err != nil {
		return fmt.Errorf("cronqueue: unsupported log level %q", val)
	}
	*l = LogLevel(v)
	return nil
}

// Type is part of the pflag.Value interface.
func (l *LogLevel) Type() string { return "level" }

func toInternalLogLevel(l LogLevel) log.Level {
	switch l {
	case DebugLevel:
		return log.DebugLevel
	case InfoLevel:
		return log.InfoLevel
	case NoticeLevel:
		return log.NoticeLevel
	case WarnLevel:
		return log.WarnLevel
	case ErrorLevel:
		return log.ErrorLevel
	case CriticalLevel:
		return log.CriticalLevel
	case AlertLevel:
		return log.AlertLevel
	case EmergencyLevel:
		return log.EmergencyLevel
	}
	panic(fmt.Sprintf("cronqueue: unexpected log level: %v", int32(l)))
}

// newLogger wraps base with the given threshold. A nil base logs to stderr.
func newLogger(base Logger, level LogLevel) *log.Logger {
	var b log.Base
	if base != nil {
		b = base
	}
	logger := log.NewLogger(b)
	if level == level_unspecified {
		level = InfoLevel
	}
	logger.SetLevel(toInternalLogLevel(level))
	return logger
}
