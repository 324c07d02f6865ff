// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"maps"
	"slices"
)

// StreamMode selects how one standard stream of a child is routed.
type StreamMode int

const (
	// StreamDefault leaves the choice to the next options layer, and finally to the entry point.
	StreamDefault StreamMode = iota
	// StreamPipe connects the stream to the parent through a pipe.
	StreamPipe
	// StreamInherit gives the child the parent's own stream. Under Exec the
	// stream is still captured and every chunk is also written to the parent.
	StreamInherit
	// StreamIgnore connects the stream to the null device.
	StreamIgnore
)

// String implements fmt.Stringer.
func (m StreamMode) String() string {
	switch m {
	case StreamPipe:
		return "pipe"
	case StreamInherit:
		return "inherit"
	case StreamIgnore:
		return "ignore"
	default:
		return "default"
	}
}

// Stdio routes the three standard streams of a child.
type Stdio struct {
	Stdin  StreamMode
	Stdout StreamMode
	Stderr StreamMode
}

// StdioPipe pipes all three streams.
func StdioPipe() Stdio {
	return Stdio{Stdin: StreamPipe, Stdout: StreamPipe, Stderr: StreamPipe}
}

// StdioInherit gives the child all three of the parent's streams.
func StdioInherit() Stdio {
	return Stdio{Stdin: StreamInherit, Stdout: StreamInherit, Stderr: StreamInherit}
}

// merge overlays the streams of over that are not StreamDefault.
func (s Stdio) merge(over Stdio) Stdio {
	if over.Stdin != StreamDefault {
		s.Stdin = over.Stdin
	}

	if over.Stdout != StreamDefault {
		s.Stdout = over.Stdout
	}

	if over.Stderr != StreamDefault {
		s.Stderr = over.Stderr
	}

	return s
}

// resolve replaces StreamDefault: stdin is ignored, the output streams are piped.
func (s Stdio) resolve() Stdio {
	if s.Stdin == StreamDefault {
		s.Stdin = StreamIgnore
	}

	if s.Stdout == StreamDefault {
		s.Stdout = StreamPipe
	}

	if s.Stderr == StreamDefault {
		s.Stderr = StreamPipe
	}

	return s
}

// Options control how a child is started.
//
// Options are layered: library defaults, then spawner defaults, then any
// orchestration level options, then the caller's own. A later layer wins for
// every field it sets. Env is merged key by key and Stdio stream by stream;
// Prompt is only ever replaced. Split can be switched on by any layer but not
// switched off again. Quiet is switched on by a layer that sets it and off by a
// layer that sets Prompt without it.
type Options struct {
	// Cwd is the working directory of the child. Empty means the parent's.
	Cwd string
	// Env is added on top of the parent's environment.
	Env map[string]string
	// Stdio routes the standard streams.
	Stdio Stdio
	// Prompt is called synchronously before the child is started. Nil means
	// the spawner default.
	Prompt PromptFunc
	// Quiet suppresses the Prompt call of this and earlier layers.
	Quiet bool
	// Shell replaces the system shell used for command lines.
	Shell string
	// Split tokenizes command lines with shell quoting rules and starts the
	// resulting program directly instead of through a shell.
	Split bool
}

// Merge returns a new Options with over layered on top of o.
// Neither operand is modified.
func (o Options) Merge(over Options) Options {
	out := o
	out.Env = maps.Clone(o.Env)

	if over.Cwd != "" {
		out.Cwd = over.Cwd
	}

	if len(over.Env) > 0 {
		if out.Env == nil {
			out.Env = make(map[string]string, len(over.Env))
		}

		maps.Copy(out.Env, over.Env)
	}

	out.Stdio = o.Stdio.merge(over.Stdio)

	if over.Prompt != nil {
		out.Prompt = over.Prompt
	}

	if over.Shell != "" {
		out.Shell = over.Shell
	}

	switch {
	case over.Quiet:
		out.Quiet = true
	case over.Prompt != nil:
		out.Quiet = false
	}

	out.Split = o.Split || over.Split

	return out
}

// mergeAll layers every element over the previous one. Nil entries are skipped.
func mergeAll(layers ...*Options) Options {
	var out Options

	for _, l := range layers {
		if l != nil {
			out = out.Merge(*l)
		}
	}

	return out
}

// environ returns the child environment, or nil to inherit the parent's unchanged.
func (o Options) environ(parent []string) []string {
	if len(o.Env) == 0 {
		return nil
	}

	env := make([]string, 0, len(parent)+len(o.Env))
	env = append(env, parent...)

	for _, k := range slices.Sorted(maps.Keys(o.Env)) {
		env = append(env, k+"="+o.Env[k])
	}

	return env
}
