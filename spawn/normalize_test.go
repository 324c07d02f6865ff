// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_ValidShapes(t *testing.T) {
	onClose := CloseFunc(func(int, os.Signal) {})
	onExec := ExecFunc(func(error, string, int) {})
	opts := Options{Cwd: "/tmp"}

	tests := []struct {
		name      string
		parts     []any
		wantArgs  []string
		hasArgs   bool
		wantCwd   string
		wantClose bool
		wantExec  bool
	}{
		{name: "command only", parts: []any{"ls"}},
		{name: "command and args", parts: []any{"ls", []string{"-l"}}, wantArgs: []string{"-l"}, hasArgs: true},
		{name: "command and empty args", parts: []any{"ls", []string{}}, wantArgs: []string{}, hasArgs: true},
		{name: "command and []any args", parts: []any{"echo", []any{"a", 1, true}}, wantArgs: []string{"a", "1", "true"}, hasArgs: true},
		{name: "command and close callback", parts: []any{"ls", onClose}, wantClose: true},
		{name: "command and unnamed close callback", parts: []any{"ls", func(int, os.Signal) {}}, wantClose: true},
		{name: "command and exec callback", parts: []any{"ls", onExec}, wantExec: true},
		{name: "command and options", parts: []any{"ls", opts}, wantCwd: "/tmp"},
		{name: "command and options pointer", parts: []any{"ls", &opts}, wantCwd: "/tmp"},
		{name: "command and map options", parts: []any{"ls", map[string]any{"cwd": "/tmp"}}, wantCwd: "/tmp"},
		{name: "args and callback", parts: []any{"ls", []string{"-a"}, onClose}, wantArgs: []string{"-a"}, hasArgs: true, wantClose: true},
		{name: "args and options", parts: []any{"ls", []string{"-a"}, opts}, wantArgs: []string{"-a"}, hasArgs: true, wantCwd: "/tmp"},
		{name: "options and callback", parts: []any{"ls", opts, onExec}, wantCwd: "/tmp", wantExec: true},
		{name: "four values", parts: []any{"ls", []string{"-a"}, opts, onClose}, wantArgs: []string{"-a"}, hasArgs: true, wantCwd: "/tmp", wantClose: true},
		{name: "four values all absent", parts: []any{"ls", nil, nil, nil}},
		{name: "four values typed nil", parts: []any{"ls", []string(nil), (*Options)(nil), CloseFunc(nil)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := classify(tc.parts)
			require.NoError(t, err)

			assert.Equal(t, tc.parts[0], inv.Command)
			assert.Equal(t, tc.wantArgs, inv.Args)
			assert.Equal(t, tc.hasArgs, inv.HasArgs)
			assert.Equal(t, tc.wantCwd, inv.Options.Cwd)
			assert.Equal(t, tc.wantClose, inv.OnClose != nil)
			assert.Equal(t, tc.wantExec, inv.OnExec != nil)
		})
	}
}

func TestClassify_InvalidShapes(t *testing.T) {
	onClose := CloseFunc(func(int, os.Signal) {})

	tests := []struct {
		name     string
		parts    []any
		position int
	}{
		{name: "no values", parts: nil, position: -1},
		{name: "five values", parts: []any{"ls", nil, nil, nil, nil}, position: -1},
		{name: "command not a string", parts: []any{42}, position: 0},
		{name: "empty command", parts: []any{""}, position: 0},
		{name: "two values number", parts: []any{"ls", 42}, position: 1},
		{name: "two values nil", parts: []any{"ls", nil}, position: 1},
		{name: "args with a number third", parts: []any{"ls", []string{"-a"}, 42}, position: 2},
		{name: "args with nil third", parts: []any{"ls", []string{"-a"}, nil}, position: 2},
		{name: "options then options", parts: []any{"ls", Options{}, Options{}}, position: 1},
		{name: "callback then callback", parts: []any{"ls", onClose, onClose}, position: 1},
		{name: "four values bad args", parts: []any{"ls", "nope", nil, nil}, position: 1},
		{name: "four values bad options", parts: []any{"ls", nil, "nope", nil}, position: 2},
		{name: "four values bad callback", parts: []any{"ls", nil, nil, "nope"}, position: 3},
		{name: "args with a nested list", parts: []any{"ls", []any{[]string{"x"}}}, position: 1},
		{name: "map with bad stdio", parts: []any{"ls", map[string]any{"stdio": "sideways"}}, position: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := classify(tc.parts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			var ia *InvalidArgumentError
			require.True(t, errors.As(err, &ia))
			assert.Equal(t, tc.position, ia.Position)
		})
	}
}

func TestClassify_ArgsAreCopied(t *testing.T) {
	args := []string{"a", "b"}

	inv, err := classify([]any{"echo", args})
	require.NoError(t, err)

	args[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, inv.Args)
}

func TestNormalizeWith_Layering(t *testing.T) {
	s := New(Options{Cwd: "/spawner", Env: map[string]string{"LAYER": "spawner", "S": "1"}})
	orch := &Options{Cwd: "/orchestration", Env: map[string]string{"LAYER": "orchestration", "O": "1"}}

	inv, err := s.NormalizeWith(orch, []any{"ls", Options{Env: map[string]string{"LAYER": "caller"}}})
	require.NoError(t, err)

	assert.Equal(t, "/orchestration", inv.Options.Cwd)
	assert.Equal(t, map[string]string{"LAYER": "caller", "S": "1", "O": "1"}, inv.Options.Env)
	assert.NotNil(t, inv.Options.Prompt, "library default prompt is kept")
}

func TestNormalizeWith_DoesNotMutateCallerOptions(t *testing.T) {
	s := New(Options{Env: map[string]string{"D": "1"}})
	caller := Options{Env: map[string]string{"C": "1"}}

	_, err := s.NormalizeWith(nil, []any{"ls", caller})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"C": "1"}, caller.Env)
	assert.Equal(t, map[string]string{"D": "1"}, s.Defaults().Env)
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"cwd":     "/work",
		"env":     map[string]any{"N": 1, "B": true, "S": "x"},
		"stdio":   []any{"ignore", "inherit", 2},
		"shell":   "/bin/bash",
		"split":   "true",
		"unknown": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "/work", opts.Cwd)
	assert.Equal(t, map[string]string{"N": "1", "B": "1", "S": "x"}, opts.Env)
	assert.Equal(t, Stdio{Stdin: StreamIgnore, Stdout: StreamInherit, Stderr: StreamInherit}, opts.Stdio)
	assert.Equal(t, "/bin/bash", opts.Shell)
	assert.True(t, opts.Split)
	assert.False(t, opts.Quiet)
}

func TestDecodeOptions_PromptCoercion(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{"prompt": false})
	require.NoError(t, err)
	assert.True(t, opts.Quiet)
	assert.Nil(t, opts.Prompt)

	opts, err = DecodeOptions(map[string]any{"prompt": "not a function"})
	require.NoError(t, err)
	assert.False(t, opts.Quiet)
	assert.Nil(t, opts.Prompt, "falls back to the default hook when layered")

	called := false
	opts, err = DecodeOptions(map[string]any{"prompt": func(Announcement) { called = true }})
	require.NoError(t, err)
	require.NotNil(t, opts.Prompt)
	opts.Prompt(Announcement{})
	assert.True(t, called)
}

func TestParseStdio(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Stdio
		wantErr bool
	}{
		{name: "nil", in: nil, want: Stdio{}},
		{name: "single mode", in: "inherit", want: StdioInherit()},
		{name: "mixed case", in: "PIPE", want: StdioPipe()},
		{name: "string list", in: []string{"pipe", "ignore"}, want: Stdio{Stdin: StreamPipe, Stdout: StreamIgnore}},
		{name: "descriptor numbers", in: []any{0, 1, 2}, want: StdioInherit()},
		{name: "float descriptor numbers", in: []any{nil, float64(1)}, want: Stdio{Stdout: StreamInherit}},
		{name: "parent files", in: []any{os.Stdin, os.Stdout, os.Stderr}, want: StdioInherit()},
		{name: "typed", in: StdioPipe(), want: StdioPipe()},
		{name: "wrong descriptor number", in: []any{nil, 2}, wantErr: true},
		{name: "wrong parent file", in: []any{os.Stdout}, wantErr: true},
		{name: "unknown mode", in: "sideways", wantErr: true},
		{name: "too many", in: []string{"pipe", "pipe", "pipe", "pipe"}, wantErr: true},
		{name: "wrong type", in: 3, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStdio(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
