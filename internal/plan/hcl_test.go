// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"context"
	"testing"

	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hclPlan = `
name    = "release"
mode    = "series"
capture = true

options {
  env   = { TARGET = "${env.CHILDPROC_TARGET}" }
  stdio = ["ignore", 1, "pipe"]
}

command "vet" {
  run = "go vet ./..."
}

command "build" {
  command = "go"
  args    = ["build", "-o", "${env.CHILDPROC_TARGET}/bin", "./..."]

  options {
    cwd   = "/src"
    quiet = true
  }
}
`

func stubEnviron(t *testing.T, env ...string) {
	t.Helper()

	stubs := gostub.Stub(&Environ, func() []string { return env })
	t.Cleanup(stubs.Reset)
}

func TestLoad_HCL(t *testing.T) {
	stubEnviron(t, "CHILDPROC_TARGET=/out", "NOT-AN-IDENTIFIER=x", "EMPTY=")
	stubFs(t, map[string]string{"/plans/release.hcl": hclPlan})

	p, err := Load(context.Background(), "/plans/release.hcl")
	require.NoError(t, err)

	assert.Equal(t, "release", p.Name)
	assert.Equal(t, ModeSeries, p.Mode)
	assert.True(t, p.Capture)
	assert.Equal(t, map[string]string{"TARGET": "/out"}, p.Options.Env)
	assert.Equal(t, spawn.Stdio{Stdin: spawn.StreamIgnore, Stdout: spawn.StreamInherit, Stderr: spawn.StreamPipe}, p.Options.Stdio)

	require.Len(t, p.Tasks, 2)
	assert.Equal(t, []string{"vet", "build"}, p.Labels)

	vet, ok := p.Tasks[0].(spawn.Command)
	require.True(t, ok)
	assert.Equal(t, "go vet ./...", vet.Command)
	assert.False(t, vet.HasArgs)

	build, ok := p.Tasks[1].(spawn.Command)
	require.True(t, ok)
	assert.Equal(t, []string{"build", "-o", "/out/bin", "./..."}, build.Args)
	assert.Equal(t, "/src", build.Options.Cwd)
	assert.True(t, build.Options.Quiet)
}

func TestParse_HCLErrors(t *testing.T) {
	stubEnviron(t)

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "syntax", doc: `command "x" {`, want: ErrParsePlan},
		{name: "unknown attribute", doc: "colour = \"red\"\ncommand \"x\" {\n  run = \"ls\"\n}\n", want: ErrParsePlan},
		{name: "missing env var", doc: "command \"x\" {\n  run = env.MISSING\n}\n", want: ErrParsePlan},
		{name: "no run or command", doc: "command \"x\" {\n}\n", want: ErrInvalidCommand},
		{name: "bad stdio", doc: "options {\n  stdio = { a = 1 }\n}\ncommand \"x\" {\n  run = \"ls\"\n}\n", want: ErrParsePlan},
		{name: "no commands", doc: `name = "empty"`, want: ErrNoCommands},
		{name: "bad mode", doc: "mode = \"both\"\ncommand \"x\" {\n  run = \"ls\"\n}\n", want: ErrInvalidMode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("plan.hcl", []byte(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
