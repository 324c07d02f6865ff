// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

// ErrFailedToCreatePipe is returned when an operating system pipe could not be created.
var ErrFailedToCreatePipe = errors.New("failed to create pipe")

// Spawn starts inv and returns immediately. The spawner defaults are layered
// under inv.Options. inv.OnClose, if set, is called once the child has exited,
// its inherited output has been copied and its piped output streams have ended.
//
// A piped output stream ends when it is read to EOF or closed. A stream routed
// StreamPipe by the options belongs to the caller from the start. A stream
// piped by default belongs to the caller once Process.Stdout or Process.Stderr
// has returned it, and is otherwise drained and closed after the child exits.
//
// A malformed invocation returns an *InvalidArgumentError and a child the
// operating system refused to start returns a *LaunchError. Neither calls OnClose.
func (s *Spawner) Spawn(ctx context.Context, inv Invocation) (*Process, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	opts := s.defaults.Merge(inv.Options)

	return s.launch(ctx, inv, opts, opts.Stdio.resolve(), &closeHook{fn: inv.OnClose, claimed: opts.Stdio})
}

// closeHook is the Spawn side of a launch: the close callback and the output
// streams the caller claimed by routing them StreamPipe explicitly.
type closeHook struct {
	fn      CloseFunc
	claimed Stdio
}

// launch starts the child. With a nil hook the caller owns the raw pipes and
// nothing is joined after exit.
func (s *Spawner) launch(ctx context.Context, inv Invocation, opts Options, stdio Stdio, hook *closeHook) (*Process, error) {
	logger := ctxlog.Logger(ctx).With("runnableType", "Spawn")

	path, args, err := argv(ctx, inv, opts)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, inv, opts)

	p := &Process{
		ID:      uuid.NewString(),
		Command: inv.String(),
		Path:    path,
		Args:    args,
		done:    make(chan struct{}),
	}

	logger = logger.With("id", p.ID)
	logger.Debug("command info", "path", path, "cwd", opts.Cwd, "args", args, "stdio", stdio)

	env := opts.environ(os.Environ())

	resolved, err := lookPath(path, env)
	if err != nil {
		return nil, &LaunchError{Command: path, Err: err}
	}

	w, err := s.wire(stdio)
	if err != nil {
		return nil, &LaunchError{Command: path, Err: err}
	}

	ps, err := os.StartProcess(resolved, append([]string{path}, args...), &os.ProcAttr{
		Dir:   opts.Cwd,
		Env:   env,
		Files: w.child[:],
	})

	w.closeChildEnds()

	if err != nil {
		w.closeParentEnds()
		return nil, &LaunchError{Command: path, Err: err}
	}

	p.ps = ps
	p.started = time.Now()
	p.stdin = w.stdin

	if hook == nil {
		if w.stdout != nil {
			p.stdout = w.stdout
		}

		if w.stderr != nil {
			p.stderr = w.stderr
		}
	}

	p.closed = p.closeBarrier(w, hook)

	for _, pump := range w.pumps {
		p.pumps.Add(1)

		go func() {
			defer p.pumps.Done()
			pump()
		}()
	}

	logger.Debug("process started", "pid", ps.Pid)

	go p.wait(ctx)

	return p, nil
}

// lookPath resolves a bare program name on the PATH the child will see. Names
// containing a path separator are left for the operating system to resolve
// against the child's working directory. A nil env means the parent's.
func lookPath(path string, env []string) (string, error) {
	if strings.ContainsAny(path, `/\`) {
		return path, nil
	}

	dirs, ok := searchPath(env)
	if !ok {
		return exec.LookPath(path) //nolint:wrapcheck
	}

	for _, dir := range filepath.SplitList(dirs) {
		if dir == "" {
			dir = "."
		}

		if found, err := exec.LookPath(dir + string(os.PathSeparator) + path); err == nil {
			return found, nil
		}
	}

	return "", &exec.Error{Name: path, Err: exec.ErrNotFound}
}

// searchPath returns the last PATH entry of env.
func searchPath(env []string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(env[i], "=")
		if !ok {
			continue
		}

		if k == "PATH" || (runtime.GOOS == goosWindows && strings.EqualFold(k, "PATH")) {
			return v, true
		}
	}

	return "", false
}

// announce calls the prompt hook. A panicking hook is logged and otherwise ignored.
func (s *Spawner) announce(ctx context.Context, inv Invocation, opts Options) {
	if opts.Quiet || opts.Prompt == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			ctxlog.Warn(ctx, "prompt hook panicked", "command", inv.String(), "panic", r)
		}
	}()

	user, host := LookupIdentity()

	opts.Prompt(Announcement{
		Command: inv.String(),
		Cwd:     opts.Cwd,
		User:    user,
		Host:    host,
		Options: Options{}.Merge(opts),
		Out:     s.stdout,
	})
}

// wiring holds the descriptors handed to a child and the parent ends kept for the Process.
type wiring struct {
	child  [3]*os.File
	owned  []*os.File // child ends opened here, closed once the child has them
	parent []io.Closer

	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File
	pumps  []func()
}

func (s *Spawner) wire(stdio Stdio) (*wiring, error) {
	w := &wiring{}

	if err := w.input(stdio.Stdin); err != nil {
		return nil, err
	}

	var err error

	if w.stdout, err = w.output(1, stdio.Stdout, s.stdout); err != nil {
		return nil, err
	}

	if w.stderr, err = w.output(2, stdio.Stderr, s.stderr); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *wiring) input(mode StreamMode) error {
	switch mode {
	case StreamPipe:
		r, wr, err := os.Pipe()
		if err != nil {
			w.abort()
			return errors.Join(ErrFailedToCreatePipe, err)
		}

		w.child[0] = r
		w.owned = append(w.owned, r)
		w.parent = append(w.parent, wr)
		w.stdin = wr
	case StreamInherit:
		w.child[0] = os.Stdin
	default:
		f, err := os.Open(os.DevNull)
		if err != nil {
			w.abort()
			return err //nolint:wrapcheck
		}

		w.child[0] = f
		w.owned = append(w.owned, f)
	}

	return nil
}

// output wires descriptor fd. Inheriting a writer that is not a file goes
// through a pipe and a copy.
func (w *wiring) output(fd int, mode StreamMode, parent io.Writer) (*os.File, error) {
	switch mode {
	case StreamIgnore:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			w.abort()
			return nil, err //nolint:wrapcheck
		}

		w.child[fd] = f
		w.owned = append(w.owned, f)

		return nil, nil

	case StreamInherit:
		if f, ok := parent.(*os.File); ok {
			w.child[fd] = f
			return nil, nil
		}
	}

	r, wr, err := os.Pipe()
	if err != nil {
		w.abort()
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	w.child[fd] = wr
	w.owned = append(w.owned, wr)
	w.parent = append(w.parent, r)

	if mode == StreamInherit {
		w.pumps = append(w.pumps, func() {
			_, _ = io.Copy(parent, r)
			_ = r.Close()
		})

		return nil, nil
	}

	return r, nil
}

func (w *wiring) closeChildEnds() {
	for _, f := range w.owned {
		_ = f.Close()
	}

	w.owned = nil
}

func (w *wiring) closeParentEnds() {
	for _, c := range w.parent {
		_ = c.Close()
	}

	w.parent = nil
}

func (w *wiring) abort() {
	w.closeChildEnds()
	w.closeParentEnds()
}
