// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/childproc/internal/progress"
)

// Reporter implements progress.Reporter by sending events to a running program.
type Reporter struct {
	program *tea.Program
	closed  bool
	mu      sync.RWMutex
}

var _ progress.Reporter = (*Reporter)(nil)

// Report implements progress.Reporter.
func (r *Reporter) Report(event progress.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	r.program.Send(EventMsg{Event: event})
}

// Close implements progress.Reporter.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
}

// Runner owns a TUI program and the run it displays.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	autoQuit bool
	program  []tea.ProgramOption
}

// WithAutoQuit closes the interface as soon as the run finishes instead of
// waiting for the user to quit.
func WithAutoQuit() RunnerOption {
	return func(c *runnerConfig) {
		c.autoQuit = true
	}
}

// WithProgramOptions passes options through to the bubbletea program.
func WithProgramOptions(opts ...tea.ProgramOption) RunnerOption {
	return func(c *runnerConfig) {
		c.program = append(c.program, opts...)
	}
}

// NewRunner creates a runner showing one row per label.
func NewRunner(title string, labels []string, opts ...RunnerOption) *Runner {
	cfg := &runnerConfig{}
	for _, o := range opts {
		o(cfg)
	}

	model := NewModel(title, labels)
	model.autoQuit = cfg.autoQuit

	program := tea.NewProgram(model, cfg.program...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: &Reporter{program: program},
	}
}

// Reporter returns the reporter that feeds the interface.
func (r *Runner) Reporter() *Reporter {
	return r.reporter
}

// Model returns the model. Read it only after Run has returned.
func (r *Runner) Model() *Model {
	return r.model
}

// Run shows the interface while fn runs and returns fn's error.
// Quitting the interface before fn returns cancels the context passed to fn
// and waits for fn to return. Errors of the interface itself are joined.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, rep progress.Reporter) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)

	go func() {
		err := fn(runCtx, r.reporter)
		result <- err
		r.program.Send(DoneMsg{Err: err})
	}()

	uiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		uiDone <- err
	}()

	var runErr, uiErr error

	select {
	case runErr = <-result:
		if ctx.Err() != nil {
			r.program.Quit()
		}

		uiErr = <-uiDone
	case uiErr = <-uiDone:
		cancel()

		runErr = <-result
	case <-ctx.Done():
		r.program.Quit()

		runErr = <-result
		uiErr = <-uiDone
	}

	r.reporter.Close()

	if errors.Is(uiErr, tea.ErrProgramKilled) {
		uiErr = nil
	}

	return errors.Join(runErr, uiErr)
}
