package model

//
// Logger
//
// Mirrors the logger hierarchy used throughout the teacher codebase so that
// any github.com/apex/log compatible handler can be plugged in without the
// core ever importing apex/log directly.
//

// DebugLogger is a logger emitting only debug messages.
type DebugLogger interface {
	Debug(msg string)
	Debugf(format string, v ...interface{})
}

// InfoLogger is a logger emitting debug and info messages.
type InfoLogger interface {
	DebugLogger
	Info(msg string)
	Infof(format string, v ...interface{})
}

// Logger defines the common interface that a logger should have. It is
// out of the box compatible with apex/log's Interface.
type Logger interface {
	InfoLogger
	Warn(msg string)
	Warnf(format string, v ...interface{})
}

// DiscardLogger is the default logger that discards its input.
var DiscardLogger Logger = logDiscarder{}

type logDiscarder struct{}

func (logDiscarder) Debug(msg string)                          {}
func (logDiscarder) Debugf(format string, v ...interface{})    {}
func (logDiscarder) Info(msg string)                           {}
func (logDiscarder) Infof(format string, v ...interface{})     {}
func (logDiscarder) Warn(msg string)                            {}
func (logDiscarder) Warnf(format string, v ...interface{})     {}

// ValidLoggerOrDefault returns logger if non-nil, else DiscardLogger.
func ValidLoggerOrDefault(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return DiscardLogger
}
