// Package logger provides the structured logger shared by every package in
// this module, built on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default is the logger used by the package-level helpers below. Replace it
// with SetDefault during startup once the CLI has parsed --log-level.
var Default *slog.Logger

func init() {
	Default = New("info", os.Stdout)
}

func levelFor(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New creates a JSON-formatted logger at the given level, suitable for
// machine-consumed output (e.g. the serve subcommand).
func New(level string, output io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: levelFor(level)})
	return slog.New(handler)
}

// NewText creates a text-formatted logger, the default for interactive CLI
// use.
func NewText(level string, output io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: levelFor(level)})
	return slog.New(handler)
}

// SetDefault replaces the package-level logger.
func SetDefault(l *slog.Logger) {
	Default = l
}

func Debug(msg string, args ...any) { Default.Debug(msg, args...) }
func Info(msg string, args ...any)  { Default.Info(msg, args...) }
func Warn(msg string, args ...any)  { Default.Warn(msg, args...) }
func Error(msg string, args ...any) { Default.Error(msg, args...) }

// With returns a logger with the given attributes attached.
func With(args ...any) *slog.Logger {
	return Default.With(args...)
}
