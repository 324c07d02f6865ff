// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidArgument is matched by every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLaunch is matched by every *LaunchError.
	ErrLaunch = errors.New("could not start process")
	// ErrChildProcess is matched by every *ChildProcessError.
	ErrChildProcess = errors.New("child process failed")
	// ErrFuncPanic is returned for a function task that panicked.
	ErrFuncPanic = errors.New("function task panicked")
	// ErrNilTask is returned when a task list contains a nil entry.
	ErrNilTask = errors.New("nil task")
)

// InvalidArgumentError reports a malformed call. It is always returned
// synchronously, before any process is started.
type InvalidArgumentError struct {
	Position int    // zero-based position of the offending value, -1 when it concerns the whole call
	Reason   string // what was wrong
	Value    any    // the offending value, if any
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Reason)
	}

	return fmt.Sprintf("%s at position %d: %s (%T)", ErrInvalidArgument, e.Position, e.Reason, e.Value)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArg(pos int, v any, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Position: pos, Reason: reason, Value: v}
}

// LaunchError reports that the operating system refused to start a process.
type LaunchError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrLaunch, e.Command, e.Err)
}

// Unwrap returns the operating system error.
func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunch, e.Err}
}

// ChildProcessError is the failure value delivered to completion callbacks
// when a child exits non-zero, is killed by a signal, or (for Exec) writes to stderr.
type ChildProcessError struct {
	Stderr   string    // captured stderr text, empty for Spawn based steps
	ExitCode int       // exit code as reported by the operating system, -1 when signalled
	Signal   os.Signal // terminating signal, nil when the process exited normally
}

// Error returns the captured stderr text when there is any, otherwise a
// description of the exit status.
func (e *ChildProcessError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}

	if e.Signal != nil {
		return fmt.Sprintf("%s: terminated by signal %s", ErrChildProcess, e.Signal)
	}

	return fmt.Sprintf("%s: exit code %d", ErrChildProcess, e.ExitCode)
}

// Is makes errors.Is(err, ErrChildProcess) hold.
func (e *ChildProcessError) Is(target error) bool {
	return target == ErrChildProcess
}

// ParallelError is the outcome of a Parallel run in which at least one task
// failed. It holds one entry per task, in input order; successful tasks are nil.
type ParallelError []error

// Error implements the error interface.
func (e ParallelError) Error() string {
	var merr *multierror.Error

	for i, err := range e {
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("task %d: %w", i, err))
		}
	}

	if merr == nil {
		return "no task failed"
	}

	merr.ErrorFormat = listFormat

	return merr.Error()
}

// Unwrap returns the non-nil task errors.
func (e ParallelError) Unwrap() []error {
	var out []error

	for _, err := range e {
		if err != nil {
			out = append(out, err)
		}
	}

	return out
}

// Failed returns the number of tasks that failed.
func (e ParallelError) Failed() int {
	return len(e.Unwrap())
}

func listFormat(errs []error) string {
	if len(errs) == 1 {
		return fmt.Sprintf("1 of the parallel tasks failed: %s", errs[0])
	}

	msg := fmt.Sprintf("%d of the parallel tasks failed:", len(errs))
	for _, err := range errs {
		msg += "\n\t* " + err.Error()
	}

	return msg
}

// FuncPanicError wraps the value recovered from a panicking function task.
type FuncPanicError struct {
	Value any
}

// Error implements the error interface.
func (e *FuncPanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrFuncPanic, e.Value)
}

// Unwrap allows errors.Is(err, ErrFuncPanic), and reaches a panicked error value.
func (e *FuncPanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrFuncPanic, err}
	}

	return []error{ErrFuncPanic}
}
