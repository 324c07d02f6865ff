// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

// Task is one step of a Series or Parallel run: a Shell, a Command or a Func.
type Task interface {
	isTask()
}

// Shell is a command line launched with the shared options of the run.
type Shell string

// Command is a nested invocation. Its options are layered over the shared
// options of the run. When OnExec is set the step runs through Exec and the
// captured outcome is delivered to OnExec as well as deciding the step result.
type Command struct {
	Invocation
}

// Func is a step implemented in Go. It must call next exactly once; a non-nil
// error fails the step. Calls after the first are ignored.
type Func func(ctx context.Context, next func(error))

func (Shell) isTask()   {}
func (Command) isTask() {}
func (Func) isTask()    {}

// Step is passed to the observer once per task.
type Step struct {
	Index   int      // zero-based position in the task list
	Command string   // display rendering, empty for a Func
	Args    []string // argument vector of a direct launch
	Process *Process // nil for a Func, and when the launch failed
	Options Options  // resolved options, spawner defaults included
	Func    Func     // the function of a Func step
}

// StepFunc observes steps as they start.
type StepFunc func(Step)

// DoneFunc receives the outcome of a Series or Parallel run.
type DoneFunc func(error)

// Tasks converts loosely typed items into tasks:
//
//   - a Task is kept as is
//   - a non-empty string becomes a Shell
//   - an Invocation becomes a Command
//   - a []any or []string is classified like the arguments of Spawn and becomes a Command
//   - a Func, a func(context.Context, func(error)) or a func(func(error)) becomes a Func
//
// Anything else, including nil, is an *InvalidArgumentError whose Position is the item index.
func Tasks(items ...any) ([]Task, error) {
	out := make([]Task, len(items))

	for i, item := range items {
		t, err := toTask(item)
		if err != nil {
			return nil, reposition(err, i)
		}

		out[i] = t
	}

	return out, nil
}

func toTask(item any) (Task, error) {
	switch x := item.(type) {
	case Shell:
		if x == "" {
			return nil, invalidArg(-1, x, "empty command line")
		}

		return x, nil
	case string:
		if x == "" {
			return nil, invalidArg(-1, x, "empty command line")
		}

		return Shell(x), nil
	case Command:
		if err := x.Validate(); err != nil {
			return nil, err
		}

		return x, nil
	case Invocation:
		if err := x.Validate(); err != nil {
			return nil, err
		}

		return Command{x}, nil
	case Func:
		if x == nil {
			return nil, ErrNilTask
		}

		return x, nil
	case func(context.Context, func(error)):
		if x == nil {
			return nil, ErrNilTask
		}

		return Func(x), nil
	case func(func(error)):
		if x == nil {
			return nil, ErrNilTask
		}

		return Func(func(_ context.Context, next func(error)) { x(next) }), nil
	case []string:
		parts := make([]any, len(x))
		for i, s := range x {
			parts[i] = s
		}

		return toCommand(parts)
	case []any:
		return toCommand(x)
	case nil:
		return nil, ErrNilTask
	}

	return nil, invalidArg(-1, item, "unsupported task")
}

func toCommand(parts []any) (Task, error) {
	inv, err := classify(parts)
	if err != nil {
		return nil, err
	}

	return Command{inv}, nil
}

func reposition(err error, index int) error {
	if ia, ok := err.(*InvalidArgumentError); ok { //nolint:errorlint
		return &InvalidArgumentError{
			Position: index,
			Reason:   fmt.Sprintf("task: %s", ia.Reason),
			Value:    ia.Value,
		}
	}

	return invalidArg(index, nil, err.Error())
}

// start launches one task. The returned channel receives its outcome exactly once.
func (s *Spawner) start(ctx context.Context, index int, t Task, shared Options, onStep StepFunc) <-chan error {
	res := make(chan error, 1)

	switch t := t.(type) {
	case Shell:
		s.startProcess(ctx, index, Invocation{Command: string(t), Options: shared}, onStep, res)
	case Command:
		inv := t.Invocation
		inv.Options = shared.Merge(inv.Options)
		s.startProcess(ctx, index, inv, onStep, res)
	case Func:
		onStep(Step{Index: index, Options: s.defaults.Merge(shared), Func: t})

		go s.runFunc(ctx, index, t, res)
	default:
		onStep(Step{Index: index, Options: s.defaults.Merge(shared)})

		res <- invalidArg(index, t, "unsupported task")
	}

	return res
}

// orchestrated gives process steps visible output unless routing was chosen.
func orchestrated(opts Options) Options {
	return Options{Stdio: Stdio{Stdout: StreamInherit, Stderr: StreamInherit}}.Merge(opts)
}

func (s *Spawner) startProcess(ctx context.Context, index int, inv Invocation, onStep StepFunc, res chan<- error) {
	inv.Options = orchestrated(s.defaults.Merge(inv.Options))

	step := Step{
		Index:   index,
		Command: inv.String(),
		Args:    inv.Args,
		Options: inv.Options,
	}

	var (
		p   *Process
		err error
	)

	if onExec := inv.OnExec; onExec != nil {
		p, err = s.Exec(ctx, inv, func(err error, stdout string, code int) {
			onExec(err, stdout, code)
			res <- err
		})
	} else {
		p, err = s.Spawn(ctx, inv)
		if err == nil {
			go func() {
				res <- p.Result()
			}()
		}
	}

	step.Process = p

	onStep(step)

	if err != nil {
		ctxlog.Debug(ctx, "step failed to launch", "runnableType", "Step", "index", index, "error", err)
		res <- err
	}
}

func (s *Spawner) runFunc(ctx context.Context, index int, fn Func, res chan<- error) {
	logger := ctxlog.Logger(ctx).With("runnableType", "Func", "index", index)

	var called atomic.Bool

	next := func(err error) {
		if !called.CompareAndSwap(false, true) {
			logger.Debug("continue called more than once, ignoring", "error", err)
			return
		}

		res <- err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("function task panicked", "panic", r)
			next(&FuncPanicError{Value: r})
		}
	}()

	fn(ctx, next)
}
