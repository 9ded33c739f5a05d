// Package util provides a structured logger for the application.
package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ParseLogLevel converts a string to a slog level. Unknown values map to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Logger provides structured logging.
type Logger struct {
	mu     sync.Mutex
	level  slog.Level
	format string // "json" or "text"
	attrs  []any
	slog   *slog.Logger
}

// NewLogger creates a new logger writing to stdout.
func NewLogger(level, format string) *Logger {
	l := &Logger{
		level:  ParseLogLevel(level),
		format: format,
	}
	l.slog = slog.New(l.handler(os.Stdout))
	return l
}

func (l *Logger) handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level}
	if l.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slog = slog.New(l.handler(w)).With(l.attrs...)
}

// With returns a new logger with an additional field.
func (l *Logger) With(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a new logger with multiple additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	return &Logger{
		level:  l.level,
		format: l.format,
		attrs:  append(append([]any{}, l.attrs...), attrs...),
		slog:   l.slog.With(attrs...),
	}
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slog
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.Slog().Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.Slog().Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.Slog().Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.Slog().Error(msg, args...)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewLogger("info", "json")
)

// SetDefaultLogger sets the default logger and routes the slog default through it.
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	slog.SetDefault(l.Slog())
}

// GetDefaultLogger returns the default logger.
func GetDefaultLogger() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Package-level convenience functions

func Debug(msg string, args ...any) {
	GetDefaultLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetDefaultLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetDefaultLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetDefaultLogger().Error(msg, args...)
}

// GenerateRequestID generates a unique request ID.
func GenerateRequestID() (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, randomBytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("req_%x%s", time.Now().UnixNano(), hex.EncodeToString(randomBytes)), nil
}
