// Package logger wraps log/slog with the small interface the engine needs.
package logger

import (
	"log/slog"
	"os"
)

// Interface defines the logging methods used across the diagnostic pipeline.
type Interface interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Logger implements Interface on top of slog.
type Logger struct {
	logger *slog.Logger
}

// New creates a logger writing text to stderr at Info level.
func New() *Logger {
	return NewWithLevel(slog.LevelInfo)
}

// NewWithLevel creates a logger with the given minimum level.
func NewWithLevel(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{logger: slog.New(handler)}
}

func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// GetSlogLogger returns the underlying slog logger.
func (l *Logger) GetSlogLogger() *slog.Logger {
	return l.logger
}

// Err creates a structured error attribute.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}

// Nop is a logger that discards everything. Useful in tests.
type Nop struct{}

func (Nop) Error(string, ...any) {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Info(string, ...any)  {}
func (Nop) Debug(string, ...any) {}
