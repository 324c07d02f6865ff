// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	maxCallParts = 4

	modePipe    = "pipe"
	modeInherit = "inherit"
	modeIgnore  = "ignore"
)

// Normalize classifies a loosely typed call on the default spawner.
// See (*Spawner).NormalizeWith.
func Normalize(parts ...any) (Invocation, error) {
	return Default().NormalizeWith(nil, parts)
}

// NormalizeWith classifies a loosely typed call of one to four values,
// (command, args?, options?, callback?), by the runtime type of each value:
//
//	1 value:  command
//	2 values: command + sequence | callable | mapping
//	3 values: command + sequence + callable | mapping
//	          command + mapping + callable
//	4 values: command + sequence or nil + mapping or nil + callable or nil
//
// A sequence is a []string, or a []any of scalars. A callable is a CloseFunc
// or an ExecFunc (or the equivalent unnamed func types). A mapping is an
// Options, an *Options or a map[string]any decoded with DecodeOptions.
//
// The returned options layer the caller's mapping over orchestration over the
// spawner defaults. Any other shape is an *InvalidArgumentError.
func (s *Spawner) NormalizeWith(orchestration *Options, parts []any) (Invocation, error) {
	inv, err := classify(parts)
	if err != nil {
		return Invocation{}, err
	}

	inv.Options = mergeAll(&s.defaults, orchestration, &inv.Options)

	return inv, nil
}

// classify resolves the call shape. The options it returns are the caller's only.
func classify(parts []any) (Invocation, error) {
	if len(parts) == 0 || len(parts) > maxCallParts {
		return Invocation{}, invalidArg(-1, nil, fmt.Sprintf("expected 1 to %d values, got %d", maxCallParts, len(parts)))
	}

	command, ok := parts[0].(string)
	if !ok || command == "" {
		return Invocation{}, invalidArg(0, parts[0], "command must be a non-empty string")
	}

	inv := Invocation{Command: command}

	var err error

	switch len(parts) {
	case 1:
	case 2:
		err = classifyTwo(&inv, parts[1])
	case 3:
		err = classifyThree(&inv, parts[1], parts[2])
	default:
		err = classifyFour(&inv, parts[1], parts[2], parts[3])
	}

	if err != nil {
		return Invocation{}, err
	}

	return inv, nil
}

func classifyTwo(inv *Invocation, v any) error {
	if args, ok, err := asSequence(1, v); ok || err != nil {
		if err != nil {
			return err
		}

		inv.Args, inv.HasArgs = args, true

		return nil
	}

	if ok := setCallback(inv, v); ok {
		return nil
	}

	if opts, ok, err := asMapping(1, v); ok || err != nil {
		inv.Options = opts
		return err
	}

	return invalidArg(1, v, "expected an argument vector, options or a callback")
}

func classifyThree(inv *Invocation, second, third any) error {
	args, isSeq, err := asSequence(1, second)
	if err != nil {
		return err
	}

	if isSeq {
		inv.Args, inv.HasArgs = args, true

		if setCallback(inv, third) {
			return nil
		}

		opts, ok, err := asMapping(2, third)
		if err != nil {
			return err
		}

		if !ok {
			return invalidArg(2, third, "expected options or a callback after an argument vector")
		}

		inv.Options = opts

		return nil
	}

	opts, isMap, err := asMapping(1, second)
	if err != nil {
		return err
	}

	if !isMap || !setCallback(inv, third) {
		return invalidArg(1, second, "expected an argument vector, or options followed by a callback")
	}

	inv.Options = opts

	return nil
}

func classifyFour(inv *Invocation, args, opts, callback any) error {
	if !isNil(args) {
		a, ok, err := asSequence(1, args)
		if err != nil {
			return err
		}

		if !ok {
			return invalidArg(1, args, "argument vector must be a sequence or nil")
		}

		inv.Args, inv.HasArgs = a, true
	}

	if !isNil(opts) {
		o, ok, err := asMapping(2, opts)
		if err != nil {
			return err
		}

		if !ok {
			return invalidArg(2, opts, "options must be a mapping or nil")
		}

		inv.Options = o
	}

	if !isNil(callback) && !setCallback(inv, callback) {
		return invalidArg(3, callback, "callback must be callable or nil")
	}

	return nil
}

// isNil reports untyped nil and nil slices, maps, pointers and funcs of the
// types classify understands.
func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []string:
		return x == nil
	case []any:
		return x == nil
	case map[string]any:
		return x == nil
	case *Options:
		return x == nil
	case CloseFunc:
		return x == nil
	case ExecFunc:
		return x == nil
	case func(int, os.Signal):
		return x == nil
	case func(error, string, int):
		return x == nil
	}

	return false
}

// asSequence reports whether v is an argument vector. A []any holding
// something other than scalars is an error rather than "not a sequence".
func asSequence(pos int, v any) ([]string, bool, error) {
	switch x := v.(type) {
	case []string:
		return slices.Clone(x), true, nil
	case []any:
		out := make([]string, len(x))

		for i, e := range x {
			switch e.(type) {
			case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
				out[i] = fmt.Sprint(e)
			default:
				return nil, false, invalidArg(pos, e, fmt.Sprintf("argument %d is not a scalar", i))
			}
		}

		return out, true, nil
	}

	return nil, false, nil
}

func setCallback(inv *Invocation, v any) bool {
	switch fn := v.(type) {
	case CloseFunc:
		inv.OnClose = fn
	case func(int, os.Signal):
		inv.OnClose = fn
	case ExecFunc:
		inv.OnExec = fn
	case func(error, string, int):
		inv.OnExec = fn
	default:
		return false
	}

	return true
}

func asMapping(pos int, v any) (Options, bool, error) {
	switch x := v.(type) {
	case Options:
		return Options{}.Merge(x), true, nil
	case *Options:
		if x == nil {
			return Options{}, true, nil
		}

		return Options{}.Merge(*x), true, nil
	case map[string]any:
		opts, err := DecodeOptions(x)
		if err != nil {
			if ia, ok := err.(*InvalidArgumentError); ok { //nolint:errorlint
				ia.Position = pos
			}

			return Options{}, true, err
		}

		return opts, true, nil
	}

	return Options{}, false, nil
}

type rawOptions struct {
	Cwd    string            `mapstructure:"cwd"`
	Env    map[string]string `mapstructure:"env"`
	Stdio  any               `mapstructure:"stdio"`
	Prompt any               `mapstructure:"prompt"`
	Quiet  bool              `mapstructure:"quiet"`
	Shell  string            `mapstructure:"shell"`
	Split  bool              `mapstructure:"split"`
}

// DecodeOptions converts a generic mapping, as produced by YAML or JSON
// decoders, into Options. Recognised keys are cwd, env, stdio, prompt,
// quiet, shell and split; other keys are ignored. Scalar env values are
// converted to strings.
//
// A prompt that is not callable is coerced: false silences the announcement,
// anything else selects the default hook.
func DecodeOptions(m map[string]any) (Options, error) {
	var raw rawOptions

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return Options{}, invalidArg(-1, m, err.Error())
	}

	if err := dec.Decode(m); err != nil {
		return Options{}, invalidArg(-1, m, "options: "+err.Error())
	}

	stdio, err := ParseStdio(raw.Stdio)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Cwd:   raw.Cwd,
		Env:   raw.Env,
		Stdio: stdio,
		Quiet: raw.Quiet,
		Shell: raw.Shell,
		Split: raw.Split,
	}

	switch p := raw.Prompt.(type) {
	case PromptFunc:
		opts.Prompt = p
	case func(Announcement):
		opts.Prompt = p
	case bool:
		if !p {
			opts.Quiet = true
		}
	}

	return opts, nil
}

// ParseStdio converts a routing description into Stdio. It accepts a Stdio,
// a single mode name ("pipe", "inherit", "ignore") applied to every stream,
// or a list of up to three per-stream entries. A list entry may be a mode
// name, nil for the default, the parent's own *os.File, or the integer of the
// parent descriptor (0, 1 or 2) at the same position, which means inherit.
func ParseStdio(v any) (Stdio, error) {
	switch x := v.(type) {
	case nil:
		return Stdio{}, nil
	case Stdio:
		return x, nil
	case string:
		m, err := parseMode(x)
		if err != nil {
			return Stdio{}, err
		}

		return Stdio{Stdin: m, Stdout: m, Stderr: m}, nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}

		return parseStdioList(items)
	case []any:
		return parseStdioList(x)
	}

	return Stdio{}, invalidArg(-1, v, "stdio must be a mode name or a list of modes")
}

func parseStdioList(items []any) (Stdio, error) {
	if len(items) > 3 {
		return Stdio{}, invalidArg(-1, items, "stdio lists have at most three entries")
	}

	var modes [3]StreamMode

	for i, item := range items {
		m, err := parseStreamEntry(i, item)
		if err != nil {
			return Stdio{}, err
		}

		modes[i] = m
	}

	return Stdio{Stdin: modes[0], Stdout: modes[1], Stderr: modes[2]}, nil
}

func parseStreamEntry(fd int, item any) (StreamMode, error) {
	parent := [3]*os.File{os.Stdin, os.Stdout, os.Stderr}

	switch x := item.(type) {
	case nil:
		return StreamDefault, nil
	case StreamMode:
		return x, nil
	case string:
		return parseMode(x)
	case *os.File:
		if x == parent[fd] {
			return StreamInherit, nil
		}
	default:
		if n, ok := asInt(item); ok && n == fd {
			return StreamInherit, nil
		}
	}

	return StreamDefault, invalidArg(-1, item, fmt.Sprintf("unsupported routing for descriptor %d", fd))
}

func parseMode(s string) (StreamMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StreamDefault, nil
	case modePipe:
		return StreamPipe, nil
	case modeInherit:
		return StreamInherit, nil
	case modeIgnore:
		return StreamIgnore, nil
	}

	return StreamDefault, invalidArg(-1, s, fmt.Sprintf("unknown stream mode %q", s))
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true //nolint:gosec
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}

	return 0, false
}
