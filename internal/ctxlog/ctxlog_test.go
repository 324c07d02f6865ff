// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_DefaultWhenMissing(t *testing.T) {
	assert.Same(t, DefaultLogger, Logger(context.Background()))
	assert.Same(t, DefaultLogger, Logger(New(context.Background(), nil)))
}

func TestLogger_FromContext(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := New(context.Background(), l)

	assert.Same(t, l, Logger(ctx))
}

func TestWith_AddsAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := With(New(context.Background(), l), "runnableType", "test")

	Debug(ctx, "debug message", "n", 1)
	Info(ctx, "info message")
	Warn(ctx, "warn message")
	Error(ctx, "error message")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message", "runnableType=test", "n=1"} {
		assert.Contains(t, out, want)
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		exe  string
		want slog.Level
	}{
		{name: "unset", exe: "/usr/bin/childproc", want: slog.LevelWarn},
		{name: "executable specific", exe: "/usr/bin/mytool", env: map[string]string{"MYTOOL_LOG_LEVEL": "DEBUG"}, want: slog.LevelDebug},
		{name: "windows extension stripped", exe: `mytool.exe`, env: map[string]string{"MYTOOL_LOG_LEVEL": "ERROR"}, want: slog.LevelError},
		{name: "fallback variable", exe: "/usr/bin/other", env: map[string]string{LevelEnv: "info"}, want: slog.LevelInfo},
		{name: "executable wins over fallback", exe: "/bin/x", env: map[string]string{"X_LOG_LEVEL": "ERROR", LevelEnv: "DEBUG"}, want: slog.LevelError},
		{name: "offset", exe: "/bin/x", env: map[string]string{"X_LOG_LEVEL": "INFO+2"}, want: slog.LevelInfo + 2},
		{name: "garbage", exe: "/bin/x", env: map[string]string{"X_LOG_LEVEL": "loud"}, want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, levelFromEnv(getenv, tt.exe))
		})
	}
}

func TestJSONLogger_SharesLevel(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelError)
	require.False(t, JSONLogger.Enabled(context.Background(), slog.LevelInfo))

	LevelVar.Set(slog.LevelDebug)
	assert.True(t, JSONLogger.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewForTUI(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := NewForTUI(context.Background(), buf)

	require.NotSame(t, DefaultLogger, Logger(ctx))

	Error(ctx, "kept off the screen")
	assert.Contains(t, buf.String(), "kept off the screen")
	assert.NotContains(t, buf.String(), "\033[")
}
