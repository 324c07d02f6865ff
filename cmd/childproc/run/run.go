// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand, which runs a plan file.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/childproc/internal/color"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/plan"
	"github.com/matt-FFFFFF/childproc/internal/progress"
	"github.com/matt-FFFFFF/childproc/internal/signalbroker"
	"github.com/matt-FFFFFF/childproc/internal/tui"
	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag        = "file"
	parallelFlag    = "parallel"
	seriesFlag      = "series"
	captureFlag     = "capture"
	quietFlag       = "quiet"
	shellFlag       = "shell"
	progressFlag    = "progress"
	tuiFlag         = "tui"
	reporterBuffer  = 64
	cliExitStr      = ""
	outputIndent    = "    "
	summaryOK       = "ok"
	summaryFailed   = "failed"
	summarySkipped  = "skipped"
	summaryNotSeen  = "not started"
	summaryRunning  = "running"
	defaultInterval = 0
)

// RunCmd is the command that runs a plan file.
var RunCmd = NewRunCmd()

// NewRunCmd returns a run command with fresh flag state.
func NewRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the commands of a plan file in series or in parallel",
		Description: `Run the commands defined in a YAML or HCL plan file.

In series mode commands run one after another and the run stops at the first
failure. In parallel mode every command is started at once and every failure is
reported against the position of its command.

Plan file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.
`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileFlag,
				Aliases:  []string{"f"},
				Usage:    "URL of the plan file. Supports Hashicorp's go-getter syntax.",
				Required: true,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     parallelFlag,
				Aliases:  []string{"p"},
				Usage:    "Run the commands in parallel regardless of the plan mode",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     seriesFlag,
				Aliases:  []string{"s"},
				Usage:    "Run the commands in series regardless of the plan mode",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     captureFlag,
				Aliases:  []string{"c"},
				Usage:    "Capture the output of every command and print it after the run",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     quietFlag,
				Aliases:  []string{"q"},
				Usage:    "Do not announce commands before they start",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     shellFlag,
				Usage:    "Shell used to run command lines",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     tuiFlag,
				Aliases:  []string{"t", "interactive"},
				Usage:    "Show an interactive terminal interface while the plan runs. Implies --capture and --quiet.",
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:  progressFlag,
				Usage: "Report the last output line of captured commands at this interval. Zero disables it.",
				Value: defaultInterval,
			},
		},
		Action: actionFunc,
	}
}

// result is the outcome of one plan step.
type result struct {
	state  string
	err    error
	output string
}

// recorder collects step outcomes as they arrive.
type recorder struct {
	mu      sync.Mutex
	results []result
	last    int
}

func newRecorder(n int) *recorder {
	r := &recorder{results: make([]result, n), last: -1}
	for i := range r.results {
		r.results[i].state = summaryNotSeen
	}

	return r
}

func (r *recorder) started(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[i].state = summaryRunning
	r.last = max(r.last, i)
}

func (r *recorder) captured(i int, err error, out string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[i].output = out
	r.results[i].err = err
}

// finish applies the orchestration outcome. A ParallelError carries one
// entry per step; any other error belongs to the last step started.
func (r *recorder) finish(err error) []result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var perr spawn.ParallelError

	isParallel := errors.As(err, &perr)

	for i := range r.results {
		res := &r.results[i]

		switch {
		case res.state == summaryNotSeen:
			res.state = summarySkipped
			continue
		case isParallel && i < len(perr) && perr[i] != nil:
			res.err = perr[i]
		case !isParallel && err != nil && i == r.last:
			res.err = err
		}

		if res.err != nil {
			res.state = summaryFailed
			continue
		}

		res.state = summaryOK
	}

	return r.results
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	if cmd.Bool(parallelFlag) && cmd.Bool(seriesFlag) {
		logger.Error("--parallel and --series cannot be used together.")
		return cli.Exit(cliExitStr, 1)
	}

	src := cmd.String(fileFlag)

	p, err := fetchPlan(ctx, src)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load plan %s: %s", src, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	switch {
	case cmd.Bool(parallelFlag):
		p.Mode = plan.ModeParallel
	case cmd.Bool(seriesFlag):
		p.Mode = plan.ModeSeries
	}

	useTUI := cmd.Bool(tuiFlag)
	capture := p.Capture || cmd.Bool(captureFlag) || useTUI

	spawner := spawn.New(spawn.Options{
		Quiet: cmd.Bool(quietFlag) || useTUI,
		Shell: cmd.String(shellFlag),
	}, spawn.WithOutput(cmd.Writer, cmd.ErrWriter))

	if capture {
		p.Options = p.Options.Merge(spawn.Options{
			Stdio: spawn.Stdio{Stdout: spawn.StreamPipe, Stderr: spawn.StreamPipe},
		})
	}

	rec := newRecorder(len(p.Tasks))
	children := signalbroker.ChildrenFrom(ctx)
	interval := cmd.Duration(progressFlag)

	execute := func(ctx context.Context, rep progress.Reporter) error {
		tasks := p.Tasks
		if capture {
			tasks = p.Captured(func(i int) spawn.ExecFunc {
				return func(err error, stdout string, code int) {
					rec.captured(i, err, stdout)
					rep.Report(finishedEvent(i, p.Labels[i], err, code))
				}
			})
		}

		onStep := func(step spawn.Step) {
			label := p.Labels[step.Index]

			rec.started(step.Index)
			rep.Report(progress.Event{
				Index:   step.Index,
				Label:   label,
				Type:    progress.EventStarted,
				Message: step.Command,
			})

			if step.Process == nil {
				return
			}

			children.Track(step.Process)

			switch {
			case !capture:
				go func(proc *spawn.Process) {
					err := proc.Result()
					rep.Report(finishedEvent(step.Index, label, err, proc.ExitCode()))
				}(step.Process)
			case interval > 0:
				go progress.Watch(ctx, rep, step.Index, label, step.Process, interval)
			}
		}

		logger.Info(fmt.Sprintf("Running plan %s", p.Name), "mode", string(p.Mode), "commands", len(tasks))

		return runPlan(ctx, spawner, p.Mode, tasks, &p.Options, onStep)
	}

	var runErr error

	switch useTUI {
	case true:
		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		runner := tui.NewRunner(p.Name, p.Labels, tui.WithProgramOptions(
			tea.WithAltScreen(),
			tea.WithOutput(cmd.Writer),
		))

		runErr = runner.Run(tuiCtx, execute)

		buf.WriteTo(cmd.ErrWriter) //nolint:errcheck
	default:
		reporter := progress.NewChannelReporter(ctx, reporterBuffer)
		reporter.Listen(textListener(cmd.ErrWriter))

		runErr = execute(ctx, reporter)

		reporter.Close()
	}

	results := rec.finish(runErr)

	writeSummary(cmd.Writer, p, results, capture)

	if runErr != nil {
		logger.Error("Some commands failed. See above for details.")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// runPlan runs tasks in the given mode and blocks until the run completes.
func runPlan(ctx context.Context, s *spawn.Spawner, mode plan.Mode, tasks []spawn.Task, opts *spawn.Options, onStep spawn.StepFunc) error {
	done := make(chan error, 1)
	onDone := func(err error) { done <- err }

	switch mode {
	case plan.ModeParallel:
		s.Parallel(ctx, tasks, opts, onStep, onDone)
	default:
		s.Series(ctx, tasks, opts, onStep, onDone)
	}

	return <-done
}

func finishedEvent(i int, label string, err error, code int) progress.Event {
	ev := progress.Event{
		Index:    i,
		Label:    label,
		Type:     progress.EventCompleted,
		ExitCode: code,
		Err:      err,
	}

	if err != nil {
		ev.Type = progress.EventFailed
		ev.Message = err.Error()
	}

	return ev
}

// textListener writes one line per event to w.
func textListener(w io.Writer) progress.Listener {
	var mu sync.Mutex

	return progress.ListenerFunc(func(ev progress.Event) {
		mu.Lock()
		defer mu.Unlock()

		line := fmt.Sprintf("[%d] %s: %s", ev.Index, ev.Label, ev.Type)
		if ev.Message != "" {
			line += " " + ev.Message
		}

		if ev.Elapsed > 0 {
			line += fmt.Sprintf(" (%s)", ev.Elapsed.Round(time.Second))
		}

		fmt.Fprintln(w, line) //nolint:errcheck
	})
}

func writeSummary(w io.Writer, p *plan.Plan, results []result, capture bool) {
	fmt.Fprintf(w, "%s (%s)\n", color.Colorize(p.Name, color.Bold), p.Mode) //nolint:errcheck

	for i, res := range results {
		fmt.Fprintf(w, "  %s %s\n", stateText(res.state), p.Labels[i]) //nolint:errcheck

		if res.err != nil {
			fmt.Fprintf(w, "%s%s\n", outputIndent, res.err.Error()) //nolint:errcheck
		}

		if !capture || res.output == "" {
			continue
		}

		for line := range strings.Lines(res.output) {
			fmt.Fprintf(w, "%s| %s", outputIndent, line) //nolint:errcheck
		}

		if !strings.HasSuffix(res.output, "\n") {
			fmt.Fprintln(w) //nolint:errcheck
		}
	}
}

func stateText(state string) string {
	switch state {
	case summaryOK:
		return color.Colorize(state, color.FgGreen)
	case summaryFailed:
		return color.Colorize(state, color.FgRed)
	default:
		return color.Colorize(state, color.FgYellow)
	}
}
