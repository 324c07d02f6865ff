// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"slices"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/join"
)

// Parallel starts every task in list order without waiting between them and
// returns once all have been started.
//
// onDone is called exactly once, after every task has finished. It receives
// nil when no task failed, otherwise a ParallelError holding one entry per
// task in input order. Siblings of a failed task keep running. An empty task
// list passes nil.
func (s *Spawner) Parallel(ctx context.Context, tasks []Task, opts *Options, onStep StepFunc, onDone DoneFunc) {
	shared, onStep, onDone := orchestration(opts, onStep, onDone)
	logger := ctxlog.Logger(ctx).With("runnableType", "Parallel")

	results := make([]error, len(tasks))
	slots := make([]int, len(tasks))

	for i := range slots {
		slots[i] = i
	}

	b := join.New(func() {
		if slices.ContainsFunc(results, func(err error) bool { return err != nil }) {
			logger.Debug("parallel run failed", "tasks", len(results))
			onDone(ParallelError(slices.Clone(results)))

			return
		}

		logger.Debug("parallel run succeeded", "tasks", len(results))
		onDone(nil)
	}, slots...)

	for i, t := range tasks {
		res := s.start(ctx, i, t, shared, onStep)

		go func() {
			results[i] = <-res
			b.Arrive(i)
		}()
	}
}
