// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
)

// Spawn starts command on the default spawner. rest follows the call shapes
// of NormalizeWith; the callback, if any, must be a CloseFunc.
func Spawn(ctx context.Context, command string, rest ...any) (*Process, error) {
	s := Default()

	inv, err := s.NormalizeWith(nil, append([]any{command}, rest...))
	if err != nil {
		return nil, err
	}

	if inv.OnExec != nil {
		return nil, invalidArg(len(rest), inv.OnExec, "Spawn takes a close callback, not an exec callback")
	}

	return s.Spawn(ctx, inv)
}

// Exec runs command on the default spawner with its output captured. rest
// follows the call shapes of NormalizeWith; the callback, if any, must be an ExecFunc.
func Exec(ctx context.Context, command string, rest ...any) (*Process, error) {
	s := Default()

	inv, err := s.NormalizeWith(nil, append([]any{command}, rest...))
	if err != nil {
		return nil, err
	}

	if inv.OnClose != nil {
		return nil, invalidArg(len(rest), inv.OnClose, "Exec takes an exec callback, not a close callback")
	}

	return s.Exec(ctx, inv, inv.OnExec)
}

// SpawnSeries converts items with Tasks and runs them with (*Spawner).Series on
// the default spawner. rest is (options?, onStep?, onDone?):
//
//	()
//	(options) or (onDone)
//	(options, onDone) or (options, onStep)
//	(options, onStep, onDone)
//
// Options may be nil, an Options, an *Options or a map[string]any. The only
// errors returned are *InvalidArgumentError; failures of the run go to onDone.
func SpawnSeries(ctx context.Context, items []any, rest ...any) error {
	tasks, opts, onStep, onDone, err := orchestrationArgs(items, rest)
	if err != nil {
		return err
	}

	Default().Series(ctx, tasks, opts, onStep, onDone)

	return nil
}

// SpawnParallel is SpawnSeries for (*Spawner).Parallel.
func SpawnParallel(ctx context.Context, items []any, rest ...any) error {
	tasks, opts, onStep, onDone, err := orchestrationArgs(items, rest)
	if err != nil {
		return err
	}

	Default().Parallel(ctx, tasks, opts, onStep, onDone)

	return nil
}

func orchestrationArgs(items []any, rest []any) ([]Task, *Options, StepFunc, DoneFunc, error) {
	var (
		opts   *Options
		onStep StepFunc
		onDone DoneFunc
	)

	tasks, err := Tasks(items...)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if len(rest) > 3 {
		return nil, nil, nil, nil, invalidArg(-1, rest, "expected at most options, a step observer and a completion callback")
	}

	if len(rest) == 1 {
		if fn, ok := asDone(rest[0]); ok {
			return tasks, nil, nil, fn, nil
		}
	}

	if len(rest) > 0 && !isNil(rest[0]) {
		o, ok, err := asMapping(1, rest[0])
		if err != nil {
			return nil, nil, nil, nil, err
		}

		if !ok {
			return nil, nil, nil, nil, invalidArg(1, rest[0], "expected options or a completion callback")
		}

		opts = &o
	}

	switch len(rest) {
	case 2:
		if fn, ok := asDone(rest[1]); ok {
			onDone = fn
		} else if fn, ok := asStep(rest[1]); ok {
			onStep = fn
		} else if rest[1] != nil {
			return nil, nil, nil, nil, invalidArg(2, rest[1], "expected a completion callback or a step observer")
		}
	case 3:
		var ok bool

		if onStep, ok = asStep(rest[1]); !ok && rest[1] != nil {
			return nil, nil, nil, nil, invalidArg(2, rest[1], "expected a step observer")
		}

		if onDone, ok = asDone(rest[2]); !ok && rest[2] != nil {
			return nil, nil, nil, nil, invalidArg(3, rest[2], "expected a completion callback")
		}
	}

	return tasks, opts, onStep, onDone, nil
}

func asDone(v any) (DoneFunc, bool) {
	switch fn := v.(type) {
	case DoneFunc:
		return fn, fn != nil
	case func(error):
		return fn, fn != nil
	}

	return nil, false
}

func asStep(v any) (StepFunc, bool) {
	switch fn := v.(type) {
	case StepFunc:
		return fn, fn != nil
	case func(Step):
		return fn, fn != nil
	}

	return nil, false
}
