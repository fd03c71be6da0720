// Package logging is a logback shaped logging runtime: a LoggerContext holding a
// hierarchy of named loggers, appenders attached to them, and the encoders and
// filters configured on those appenders.
//
// Generated code builds the object graph with plain constructor and setter
// calls, so every component here is configurable without reflection.
package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// Level is the severity of an event
type Level int8

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	OffLevel
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "OFF"}

// ParseLevel maps a level name to a Level, case-insensitively. Unknown names
// yield DebugLevel. "ALL" is an alias of TRACE.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "ALL" {
		return TraceLevel
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return DebugLevel
}

func (l Level) String() string {
	if l < TraceLevel || l > OffLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ConstName returns the exported identifier of the level constant, e.g. "InfoLevel"
func (l Level) ConstName() string {
	switch l {
	case TraceLevel:
		return "TraceLevel"
	case InfoLevel:
		return "InfoLevel"
	case WarnLevel:
		return "WarnLevel"
	case ErrorLevel:
		return "ErrorLevel"
	case OffLevel:
		return "OffLevel"
	default:
		return "DebugLevel"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}
