// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LevelEnv is the fallback environment variable for the log level.
	LevelEnv       = "CHILDPROC_LOG_LEVEL"
	levelEnvSuffix = "_LOG_LEVEL"
)

type loggerKey struct{}

// LevelVar is shared by DefaultLogger and JSONLogger.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is used when the context carries no logger.
var DefaultLogger = slog.New(NewPrettyHandler(
	&slog.HandlerOptions{Level: LevelVar},
	WithAutoColour(),
	WithDestinationWriter(os.Stderr),
))

// JSONLogger writes one JSON object per record to stderr.
var JSONLogger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
	Level: LevelVar,
}))

func init() {
	exe, _ := os.Executable()
	LevelVar.Set(levelFromEnv(os.Getenv, exe))
}

// New returns a copy of ctx carrying logger, or DefaultLogger when logger is nil.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// NewForTUI returns a copy of ctx whose logger writes uncoloured records to w,
// keeping log output off a terminal owned by an interactive display.
func NewForTUI(ctx context.Context, w io.Writer) context.Context {
	return New(ctx, slog.New(NewPrettyHandler(
		&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(w),
	)))
}

// Logger returns the logger carried by ctx, falling back to DefaultLogger.
func Logger(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return DefaultLogger
	}

	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return DefaultLogger
}

// With returns a copy of ctx whose logger has args attached.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// Debug logs at debug level with the logger carried by ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).DebugContext(ctx, msg, args...)
}

// Info logs at info level with the logger carried by ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs at warn level with the logger carried by ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).WarnContext(ctx, msg, args...)
}

// Error logs at error level with the logger carried by ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).ErrorContext(ctx, msg, args...)
}

func levelFromEnv(getenv func(string) string, executable string) slog.Level {
	name := filepath.Base(executable)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	for _, key := range []string{strings.ToUpper(name) + levelEnvSuffix, LevelEnv} {
		v := getenv(key)
		if v == "" {
			continue
		}

		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}

	return slog.LevelWarn
}
