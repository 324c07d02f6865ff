// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"slices"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

// Series runs tasks one after another and returns immediately.
//
// Each task starts only once the previous one has exited, or for a Func, has
// called next. onStep observes every task that starts. The first failure stops
// the run and is passed to onDone; a run that completes passes nil. An empty
// task list passes nil. opts are the shared options for every task.
func (s *Spawner) Series(ctx context.Context, tasks []Task, opts *Options, onStep StepFunc, onDone DoneFunc) {
	shared, onStep, onDone := orchestration(opts, onStep, onDone)
	tasks = slices.Clone(tasks)

	go func() {
		onDone(s.series(ctx, tasks, shared, onStep))
	}()
}

func (s *Spawner) series(ctx context.Context, tasks []Task, shared Options, onStep StepFunc) error {
	logger := ctxlog.Logger(ctx).With("runnableType", "Series")

	for i, t := range tasks {
		if err := <-s.start(ctx, i, t, shared, onStep); err != nil {
			logger.Debug("step failed, stopping", "index", i, "error", err)
			return err
		}

		logger.Debug("step succeeded", "index", i)
	}

	return nil
}

func orchestration(opts *Options, onStep StepFunc, onDone DoneFunc) (Options, StepFunc, DoneFunc) {
	var shared Options
	if opts != nil {
		shared = Options{}.Merge(*opts)
	}

	if onStep == nil {
		onStep = func(Step) {}
	}

	if onDone == nil {
		onDone = func(error) {}
	}

	return shared, onStep, onDone
}
