// Package logging provides structured logging for tribunal review sessions.
// It wraps Go's log/slog package to produce JSON-formatted logs suitable for
// post-hoc inspection of a review run (delivery timing, round transitions,
// lock activity).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger provides structured logging with persistent attributes.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	file   *os.File
	mu     sync.Mutex
}

// NewLogger creates a Logger that writes JSON-formatted logs to
// {reviewDir}/debug.log. If reviewDir is empty, logs go to stderr.
func NewLogger(reviewDir string, level string) (*Logger, error) {
	var writer io.Writer
	var file *os.File

	if reviewDir != "" {
		if err := os.MkdirAll(reviewDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create review directory: %w", err)
		}
		logPath := filepath.Join(reviewDir, "debug.log")
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	} else {
		writer = os.Stderr
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	return &Logger{
		logger: slog.New(handler),
		file:   file,
	}, nil
}

// NewDiscardLogger returns a Logger that drops everything. Useful in tests
// and for components constructed before a session directory exists.
func NewDiscardLogger() *Logger {
	handler := slog.NewJSONHandler(io.Discard, nil)
	return &Logger{logger: slog.New(handler)}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithSession returns a child Logger with the session name on every entry.
func (l *Logger) WithSession(session string) *Logger {
	return l.with(slog.String("session", session))
}

// WithAgent returns a child Logger with the agent name on every entry.
func (l *Logger) WithAgent(agent string) *Logger {
	return l.with(slog.String("agent", agent))
}

// WithRound returns a child Logger with the round number on every entry.
func (l *Logger) WithRound(round int) *Logger {
	return l.with(slog.Int("round", round))
}

// With returns a child Logger with arbitrary alternating key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), file: l.file}
}

func (l *Logger) with(attr slog.Attr) *Logger {
	return &Logger{logger: l.logger.With(attr), file: l.file}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Close flushes and closes the underlying log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
