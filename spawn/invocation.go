// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"os"
	"slices"
)

// CloseFunc is called once a spawned process has exited and its standard
// streams have been released. sig is nil unless a signal ended the process.
type CloseFunc func(code int, sig os.Signal)

// ExecFunc receives the outcome of Exec. err is nil only when the exit code
// is zero and nothing was written to stderr; otherwise it is a *ChildProcessError.
type ExecFunc func(err error, stdout string, code int)

// Invocation is a normalized call: what to run, how, and who to tell.
type Invocation struct {
	// Command is the program, or the whole command line when HasArgs is false.
	Command string
	// Args is the argument vector. It is only used when HasArgs is true.
	Args []string
	// HasArgs selects a direct launch with Args over a command line launch.
	HasArgs bool
	// Options are the caller's options. Spawner defaults are layered underneath at launch.
	Options Options
	// OnClose is attached to the process by Spawn.
	OnClose CloseFunc
	// OnExec receives the captured outcome when the invocation runs through Exec.
	OnExec ExecFunc
}

// Cmd starts building an invocation of a command line.
func Cmd(command string) Invocation {
	return Invocation{Command: command}
}

// WithArgs switches to a direct launch with the given argument vector.
// An empty vector still selects a direct launch.
func (i Invocation) WithArgs(args ...string) Invocation {
	i.Args = slices.Clone(args)
	if i.Args == nil {
		i.Args = []string{}
	}

	i.HasArgs = true

	return i
}

// WithOptions layers opts over the options already set.
func (i Invocation) WithOptions(opts Options) Invocation {
	i.Options = i.Options.Merge(opts)
	return i
}

// WithOnClose sets the close callback.
func (i Invocation) WithOnClose(fn CloseFunc) Invocation {
	i.OnClose = fn
	return i
}

// WithOnExec sets the captured outcome callback.
func (i Invocation) WithOnExec(fn ExecFunc) Invocation {
	i.OnExec = fn
	return i
}

// Validate checks the invocation can be launched.
func (i Invocation) Validate() error {
	if i.Command == "" {
		return invalidArg(0, i.Command, "command must be a non-empty string")
	}

	return nil
}

// String renders the command as announcements show it.
func (i Invocation) String() string {
	return renderCommand(i.Command, i.Args, i.HasArgs)
}
