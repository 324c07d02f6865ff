// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExec_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("printf ok"))
	require.NoError(t, err)

	assert.NoError(t, out.Err)
	assert.Equal(t, "ok", out.Stdout)
	assert.Equal(t, 0, out.ExitCode)
}

func TestExec_ArgumentVectorIsVerbatim(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("printf").WithArgs("%s|%s", "a b", `"$HOME"`))
	require.NoError(t, err)

	assert.NoError(t, out.Err)
	assert.Equal(t, `a b|"$HOME"`, out.Stdout)
}

func TestExec_StderrAndNonZeroExit(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("printf partial; printf boom >&2; exit 3"))
	require.NoError(t, err)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, ErrChildProcess)
	assert.Equal(t, "boom", out.Err.Error())
	assert.Equal(t, "partial", out.Stdout)
	assert.Equal(t, 3, out.ExitCode)

	var cpe *ChildProcessError
	require.ErrorAs(t, out.Err, &cpe)
	assert.Equal(t, 3, cpe.ExitCode)
	assert.Nil(t, cpe.Signal)
}

func TestExec_StderrWithZeroExitIsAFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("echo warning >&2"))
	require.NoError(t, err)

	require.Error(t, out.Err)
	assert.Equal(t, "warning\n", out.Err.Error())
	assert.Equal(t, 0, out.ExitCode)
}

func TestExec_NonZeroExitWithoutStderr(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("exit 1"))
	require.NoError(t, err)

	assert.ErrorIs(t, out.Err, ErrChildProcess)
	assert.Equal(t, 1, out.ExitCode)
	assert.Empty(t, out.Stdout)
}

func TestExec_WaitsForStreamsThatOutliveTheChild(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd("echo early; (sleep 0.3; echo late) &"))
	require.NoError(t, err)

	assert.NoError(t, out.Err)
	assert.Equal(t, "early\nlate\n", out.Stdout)
	assert.Equal(t, 0, out.ExitCode)
}

func TestExec_InheritEchoesAndCaptures(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, stdout, stderr := quietSpawner(t)

	inv := Cmd("echo out; echo err >&2").WithOptions(Options{Stdio: StdioInherit()})

	out, err := s.Output(testContext(), inv)
	require.NoError(t, err)

	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Err.Error())
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExec_PerStreamInherit(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, stdout, stderr := quietSpawner(t)

	inv := Cmd("echo out; echo err >&2").WithOptions(Options{Stdio: Stdio{Stderr: StreamInherit}})

	out, err := s.Output(testContext(), inv)
	require.NoError(t, err)

	assert.Equal(t, "out\n", out.Stdout)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExec_CallbackFiresOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	calls := make(chan int, 4)

	p, err := s.Exec(testContext(), Cmd("printf a; printf b >&2"), func(_ error, _ string, code int) {
		calls <- code
	})
	require.NoError(t, err)

	assert.Equal(t, 0, waitFor(t, calls))
	assert.Nil(t, p.Stdout(), "exec owns the stream")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, calls)
}

func TestExec_FallsBackToOnExec(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	got := make(chan string, 1)
	inv := Cmd("printf hi").WithOnExec(func(_ error, stdout string, _ int) { got <- stdout })

	_, err := s.Exec(testContext(), inv, nil)
	require.NoError(t, err)

	assert.Equal(t, "hi", waitFor(t, got))
}

func TestExec_Signalled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	got := make(chan error, 1)

	p, err := s.Exec(testContext(), Cmd("sleep").WithArgs("10"), func(err error, _ string, _ int) { got <- err })
	require.NoError(t, err)
	require.NoError(t, p.Kill())

	res := waitFor(t, got)

	var cpe *ChildProcessError
	require.ErrorAs(t, res, &cpe)
	assert.Equal(t, syscall.SIGKILL, cpe.Signal)
	assert.Equal(t, -1, cpe.ExitCode)
}

func TestExec_ContextCancelKillsChild(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	ctx, cancel := context.WithCancel(testContext())
	got := make(chan error, 1)

	_, err := s.Exec(ctx, Cmd("sleep").WithArgs("10"), func(err error, _ string, _ int) { got <- err })
	require.NoError(t, err)

	cancel()

	assert.ErrorIs(t, waitFor(t, got), ErrChildProcess)
}

func TestExec_LaunchError(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	p, err := s.Exec(testContext(), Cmd("definitely-not-a-real-binary-7f3a").WithArgs(), nil)
	assert.Nil(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunch)

	_, err = s.Exec(testContext(), Cmd("true").WithArgs().WithOptions(Options{Cwd: filepath.Join(t.TempDir(), "missing")}), nil)
	assert.ErrorIs(t, err, ErrLaunch)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExec_InvalidInvocation(t *testing.T) {
	s, _, _ := quietSpawner(t)

	_, err := s.Exec(testContext(), Invocation{}, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExec_CwdAndEnv(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)
	dir := t.TempDir()

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	out, err := s.Output(testContext(), Cmd(`pwd -P; printf "$CHILDPROC_TEST"`).WithOptions(Options{
		Cwd: dir,
		Env: map[string]string{"CHILDPROC_TEST": "value"},
	}))
	require.NoError(t, err)

	assert.Equal(t, resolved+"\nvalue", out.Stdout)
}

func TestExec_Split(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	out, err := s.Output(testContext(), Cmd(`printf "%s-%s" 'one two' three`).WithOptions(Options{Split: true}))
	require.NoError(t, err)
	assert.Equal(t, "one two-three", out.Stdout)

	_, err = s.Output(testContext(), Cmd(`printf "unterminated`).WithOptions(Options{Split: true}))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProcess_LastLine(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := quietSpawner(t)

	done := make(chan struct{})

	p, err := s.Exec(testContext(), Cmd("printf 'first\\nsecond\\npartial'"), func(error, string, int) { close(done) })
	require.NoError(t, err)

	waitFor(t, done)
	assert.Equal(t, "second", p.LastLine(0))
}
