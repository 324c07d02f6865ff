// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"io"

	"github.com/matt-FFFFFF/childproc/internal/capture"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/join"
)

type source int

const (
	sourceExit source = iota
	sourceStdout
	sourceStderr
)

// Exec starts inv with stdout and stderr captured and calls onDone exactly
// once, after the child has exited and both streams have ended.
//
// onDone receives a nil error only when the exit code is zero and nothing was
// written to stderr. Otherwise it receives a *ChildProcessError carrying the
// stderr text, exit code and signal. The exit code always comes from the exit
// status. A stream routed StreamInherit is captured as well as copied to the
// spawner's matching writer as it arrives. Stdin follows the options.
//
// A nil onDone falls back to inv.OnExec. inv.OnClose is not used.
func (s *Spawner) Exec(ctx context.Context, inv Invocation, onDone ExecFunc) (*Process, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if onDone == nil {
		onDone = inv.OnExec
	}

	if onDone == nil {
		onDone = func(error, string, int) {}
	}

	opts := s.defaults.Merge(inv.Options)
	route := opts.Stdio.resolve()
	forced := Stdio{Stdin: route.Stdin, Stdout: StreamPipe, Stderr: StreamPipe}

	p, err := s.launch(ctx, inv, opts, forced, nil)
	if err != nil {
		return nil, err
	}

	var echoOut, echoErr io.Writer

	if route.Stdout == StreamInherit {
		echoOut = s.stdout
	}

	if route.Stderr == StreamInherit {
		echoErr = s.stderr
	}

	stdout := capture.New(p.stdout, echoOut)
	stderr := capture.New(p.stderr, echoErr)
	p.output = stdout

	logger := ctxlog.Logger(ctx).With("runnableType", "Exec", "id", p.ID)

	b := join.New(func() {
		code, sig := p.Wait()

		var res error
		if code != 0 || sig != nil || stderr.Len() > 0 {
			res = &ChildProcessError{Stderr: stderr.String(), ExitCode: code, Signal: sig}
		}

		logger.Debug("exec finished", "exitCode", code, "stdoutBytes", stdout.Len(), "stderrBytes", stderr.Len())

		onDone(res, stdout.String(), code)
	}, sourceExit, sourceStdout, sourceStderr)

	drain := func(src source, st *capture.Stream, rc io.Closer) {
		if err := st.Drain(); err != nil {
			logger.Warn("failed to read child output", "stream", src, "error", err)
		}

		if err := st.EchoErr(); err != nil {
			logger.Debug("stopped copying child output", "stream", src, "error", err)
		}

		_ = rc.Close()

		b.Arrive(src)
	}

	go drain(sourceStdout, stdout, p.stdout)
	go drain(sourceStderr, stderr, p.stderr)

	go func() {
		<-p.Done()
		b.Arrive(sourceExit)
	}()

	return p, nil
}

// Outcome is the result of a blocking Output call.
type Outcome struct {
	Err      error  // nil, or a *ChildProcessError
	Stdout   string // captured standard output
	ExitCode int
}

// Output runs inv through Exec and waits for the outcome. The returned error
// is only set when the child could not be started.
func (s *Spawner) Output(ctx context.Context, inv Invocation) (Outcome, error) {
	ch := make(chan Outcome, 1)

	_, err := s.Exec(ctx, inv, func(err error, stdout string, code int) {
		ch <- Outcome{Err: err, Stdout: stdout, ExitCode: code}
	})
	if err != nil {
		return Outcome{}, err
	}

	return <-ch, nil
}

func (src source) String() string {
	switch src {
	case sourceExit:
		return "exit"
	case sourceStdout:
		return "stdout"
	default:
		return "stderr"
	}
}
