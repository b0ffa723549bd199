// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type loggerKey struct{}

// ErrUnknownLevel is returned when a log level name cannot be parsed.
var ErrUnknownLevel = errors.New("unknown log level")

// ErrUnknownFormat is returned when a log format name is not supported.
var ErrUnknownFormat = errors.New("unknown log format")

// LevelVar is shared by every logger created by this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is used when no logger has been stored on the context.
var DefaultLogger = NewPrettyLogger(os.Stderr)

func init() {
	LevelVar.Set(levelFromEnv())
}

// New returns a copy of ctx carrying logger.
// If logger is nil the DefaultLogger is stored instead.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// With returns a copy of ctx whose logger has the supplied attributes added.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// Debug logs a debug message with the logger from ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).DebugContext(ctx, msg, args...)
}

// Info logs an info message with the logger from ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs a warning message with the logger from ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).WarnContext(ctx, msg, args...)
}

// Error logs an error message with the logger from ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).ErrorContext(ctx, msg, args...)
}

// NewPrettyLogger returns a logger using the pretty console handler.
// Colour is enabled automatically when w is a terminal.
func NewPrettyLogger(w io.Writer) *slog.Logger {
	return slog.New(NewPrettyHandler(&slog.HandlerOptions{
		Level: LevelVar,
	},
		WithAutoColour(),
		WithDestinationWriter(w),
	))
}

// NewJSONLogger returns a logger writing one JSON object per record.
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: LevelVar,
	}))
}

// NewLogger returns a logger for the named format, either "pretty" or "json".
func NewLogger(format string, w io.Writer) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "", "pretty", "text":
		return NewPrettyLogger(w), nil
	case "json":
		return NewJSONLogger(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SetLevel parses name and applies it to LevelVar.
func SetLevel(name string) error {
	lvl, ok := parseLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}

	LevelVar.Set(lvl)

	return nil
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelWarn, false
	}
}

// EnvName returns the name of the environment variable holding the log level.
func EnvName() string {
	exec, _ := os.Executable()
	exec = filepath.Base(exec)
	exec = strings.TrimSuffix(exec, ".exe")

	return strings.ToUpper(exec) + "_LOG_LEVEL"
}

func levelFromEnv() slog.Level {
	lvl, _ := parseLevel(os.Getenv(EnvName()))
	return lvl
}
