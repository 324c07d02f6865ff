// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/matt-FFFFFF/childproc/internal/capture"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/join"
)

// Process is a running or finished child.
//
// The exit fields are written once by the goroutine waiting on the child,
// before Done is closed, and are only read after that.
type Process struct {
	ID      string   // unique per launch
	Command string   // display rendering of the invocation
	Path    string   // resolved executable
	Args    []string // argument vector passed to Path, excluding the program name

	ps      *os.Process
	started time.Time
	stdin   io.WriteCloser
	stdout  io.ReadCloser // raw pipe owned by Exec
	stderr  io.ReadCloser
	streams [2]*pipeStream // piped stdout and stderr of a Spawn child
	output  *capture.Stream
	pumps   sync.WaitGroup
	done    chan struct{}
	closed  *join.Barrier[source]

	exitCode int
	signal   os.Signal
	err      error
	elapsed  time.Duration
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.ps.Pid
}

// Stdin returns the write end of the child's stdin, or nil unless stdin is piped.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout returns the read end of the child's stdout and hands it to the caller,
// who must read it to EOF or close it before OnClose can run. Reading to EOF
// closes it. Once the stream has ended reads return io.EOF.
//
// It is nil unless stdout is piped, and always nil for a process started by
// Exec, which owns the stream.
func (p *Process) Stdout() io.ReadCloser {
	return p.claim(0)
}

// Stderr returns the read end of the child's stderr, see Stdout.
func (p *Process) Stderr() io.ReadCloser {
	return p.claim(1)
}

func (p *Process) claim(i int) io.ReadCloser {
	if p.streams[i] == nil {
		return nil
	}

	return p.streams[i].claim()
}

// Closed is closed after OnClose has returned, or for a process started by
// Exec, once the child has exited.
func (p *Process) Closed() <-chan struct{} {
	return p.closed.Done()
}

// Done is closed when the child has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the child has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the child exits and returns its exit code and, if a signal
// ended it, the signal.
func (p *Process) Wait() (int, os.Signal) {
	<-p.done
	return p.exitCode, p.signal
}

// ExitCode returns the exit code, or -1 while the child is running or when a
// signal ended it.
func (p *Process) ExitCode() int {
	if !p.Exited() {
		return -1
	}

	return p.exitCode
}

// Signal returns the signal that ended the child, or nil.
func (p *Process) Signal() os.Signal {
	if !p.Exited() {
		return nil
	}

	return p.signal
}

// Err returns an error from waiting on the child that is not an exit status.
func (p *Process) Err() error {
	if !p.Exited() {
		return nil
	}

	return p.err
}

// Elapsed returns the running time so far, or the total once the child has exited.
func (p *Process) Elapsed() time.Duration {
	if p.Exited() {
		return p.elapsed
	}

	return time.Since(p.started)
}

// SendSignal delivers sig to the child. Signalling a finished child is not an error.
func (p *Process) SendSignal(sig os.Signal) error {
	if err := p.ps.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err //nolint:wrapcheck
	}

	return nil
}

// Kill ends the child immediately. Killing a finished child is not an error.
func (p *Process) Kill() error {
	if err := p.ps.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err //nolint:wrapcheck
	}

	return nil
}

// LastLine returns the last complete line of captured stdout, truncated to max
// bytes when max > 3. It is empty unless the process was started by Exec.
func (p *Process) LastLine(max int) string {
	if p.output == nil {
		return ""
	}

	return p.output.LastLine(max)
}

// Result waits for the child to exit and returns nil for exit code 0,
// otherwise a *ChildProcessError. Orchestrators use it as the step outcome.
func (p *Process) Result() error {
	code, sig := p.Wait()

	switch {
	case p.err != nil:
		return errors.Join(&ChildProcessError{ExitCode: code, Signal: sig}, p.err)
	case code != 0 || sig != nil:
		return &ChildProcessError{ExitCode: code, Signal: sig}
	}

	return nil
}

// closeBarrier joins the exit with the end of each piped output stream and then
// runs the hook. Streams that are not piped, and every stream of an Exec
// child, count as ended from the start.
func (p *Process) closeBarrier(w *wiring, hook *closeHook) *join.Barrier[source] {
	b := join.New(func() {
		p.pumps.Wait()

		if hook != nil && hook.fn != nil {
			hook.fn(p.exitCode, p.signal)
		}
	}, sourceExit, sourceStdout, sourceStderr)

	if hook == nil {
		b.Arrive(sourceStdout)
		b.Arrive(sourceStderr)

		return b
	}

	for i, f := range []*os.File{w.stdout, w.stderr} {
		src := sourceStdout + source(i)

		if f == nil {
			b.Arrive(src)
			continue
		}

		claimed := hook.claimed.Stdout
		if src == sourceStderr {
			claimed = hook.claimed.Stderr
		}

		p.streams[i] = newPipeStream(f, claimed == StreamPipe, func() { b.Arrive(src) })
	}

	return b
}

// wait reaps the child and is the only writer of the exit fields. Unclaimed
// output streams are released once the child has gone.
func (p *Process) wait(ctx context.Context) {
	logger := ctxlog.Logger(ctx).With("runnableType", "Process", "id", p.ID, "pid", p.ps.Pid)

	// watchdog for context cancellation
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("context done, killing process")

			if err := p.Kill(); err != nil {
				logger.Error("process kill error", "error", err)
			}
		case <-p.done:
		}
	}()

	state, err := p.ps.Wait()

	p.elapsed = time.Since(p.started)
	p.exitCode = -1

	if state != nil {
		p.exitCode = state.ExitCode()
		p.signal = exitSignal(state)
	}

	p.err = err

	if p.stdin != nil {
		_ = p.stdin.Close()
	}

	close(p.done)

	logger.Debug("process finished", "exitCode", p.exitCode, "signal", p.signal, "elapsed", p.elapsed)

	for _, st := range p.streams {
		if st != nil {
			go st.release()
		}
	}

	p.closed.Arrive(sourceExit)
}
