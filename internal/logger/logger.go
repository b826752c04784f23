// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, enriches records with request
// values from the context, and can mirror logs to Better Stack.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	level slog.Level
}

// Options configures optional log sinks.
type Options struct {
	// BetterStackToken enables shipping logs to Better Stack when non-empty.
	BetterStackToken string
	// BetterStackEndpoint overrides the Better Stack ingesting host.
	BetterStackEndpoint string
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithOptions(level, os.Stdout, Options{})
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w, wrapped in a ContextHandler,
// and fanned out to Better Stack when a token is configured.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := ParseLevel(level)

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: replaceAttr,
	})

	if opts.BetterStackToken != "" {
		bs := slogbetterstack.Option{
			Level:    logLevel,
			Token:    opts.BetterStackToken,
			Endpoint: opts.BetterStackEndpoint,
		}.NewBetterstackHandler()
		handler = NewMultiHandler(handler, bs)
	}

	return &Logger{
		Logger: slog.New(NewContextHandler(handler)),
		level:  logLevel,
	}
}

// ParseLevel maps a config string to a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceAttr renames the built-in keys to timestamp/level/message and
// lower-cases levels (WARN becomes "warning").
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
		lvl := a.Value.String()
		if lvl == "WARN" {
			lvl = "warning"
		} else {
			lvl = strings.ToLower(lvl)
		}
		a.Value = slog.StringValue(lvl)
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// Level returns the configured minimum level.
func (l *Logger) Level() slog.Level {
	return l.level
}

func (l *Logger) derive(args ...any) *Logger {
	return &Logger{Logger: l.With(args...), level: l.level}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive("module", module)
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive("request_id", requestID)
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive("error", err)
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(key, value)
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(args...)
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}
