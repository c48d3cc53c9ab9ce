package core

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

type LogLevel uint8

const (
	LogLevelNotice LogLevel = iota
	LogLevelWarning
	LogLevelCritical
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNotice:
		return "notice"
	case LogLevelWarning:
		return "warning"
	case LogLevelCritical:
		return "critical"
	}
	return "unknown"
}

/**
 * @brief Destination for diagnostics. Every component that logs receives one at
 * construction time; there is no global logger.
 */
type LogSink interface {
	Log(category string, level LogLevel, msg string)
}

// Logger is the charmbracelet backed LogSink.
type Logger struct {
	*log.Logger
}

func NewLogger(w io.Writer, config LogConfig) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          config.Prefix,
	})
	if config.Level != "" {
		lvl, err := log.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log level %q", ErrValidation, config.Level)
		}
		l.SetLevel(lvl)
	}
	return &Logger{l}, nil
}

func (l *Logger) Log(category string, level LogLevel, msg string) {
	switch level {
	case LogLevelNotice:
		l.Info(msg, "cat", category)
	case LogLevelWarning:
		l.Warn(msg, "cat", category)
	default:
		l.Error(msg, "cat", category)
	}
}

type nopLogger struct{}

func (nopLogger) Log(string, LogLevel, string) {}

// NopLogger drops everything.
var NopLogger LogSink = nopLogger{}

func LogNotice(sink LogSink, category string, msg string, args ...interface{}) {
	logf(sink, category, LogLevelNotice, msg, args...)
}

func LogWarning(sink LogSink, category string, msg string, args ...interface{}) {
	logf(sink, category, LogLevelWarning, msg, args...)
}

func LogCritical(sink LogSink, category string, msg string, args ...interface{}) {
	logf(sink, category, LogLevelCritical, msg, args...)
}

func logf(sink LogSink, category string, level LogLevel, msg string, args ...interface{}) {
	if sink == nil {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	sink.Log(category, level, msg)
}
