// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan loads command plans: a named list of commands with shared
// options that runs either in series or in parallel.
//
// Plans are YAML, or HCL when the file name ends in .hcl.
package plan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/spf13/afero"
)

// Mode selects how the commands of a plan are run.
type Mode string

const (
	// ModeSeries runs commands one after another, stopping at the first failure.
	ModeSeries Mode = "series"
	// ModeParallel starts every command at once.
	ModeParallel Mode = "parallel"
)

var (
	// ErrReadPlan is returned when the plan file cannot be read.
	ErrReadPlan = errors.New("failed to read plan")
	// ErrParsePlan is returned when the plan file is not valid YAML or HCL.
	ErrParsePlan = errors.New("failed to parse plan")
	// ErrNoCommands is returned for a plan without commands.
	ErrNoCommands = errors.New("no commands specified")
	// ErrInvalidMode is returned for a mode other than series or parallel.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidCommand is returned for a command entry that cannot be run.
	ErrInvalidCommand = errors.New("invalid command")
)

// Plan is a loaded plan file.
type Plan struct {
	Name    string
	Mode    Mode
	Capture bool          // run each command through Exec and report its output
	Options spawn.Options // shared by every command
	Tasks   []spawn.Task
	Labels  []string // one per task
}

// Load reads and parses the plan at path using FsFactory.
func Load(ctx context.Context, path string) (*Plan, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadPlan, err)
	}

	ctxlog.Debug(ctx, "plan read", "path", path, "bytes", len(data))

	return Parse(path, data)
}

// Parse decodes a plan. name selects the format and defaults the plan name.
func Parse(name string, data []byte) (*Plan, error) {
	var (
		p   *Plan
		err error
	)

	if strings.EqualFold(filepath.Ext(name), ".hcl") {
		p, err = parseHCL(name, data)
	} else {
		p, err = parseYAML(data)
	}

	if err != nil {
		return nil, err
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Plan) validate() error {
	switch p.Mode {
	case "":
		p.Mode = ModeSeries
	case ModeSeries, ModeParallel:
	default:
		return fmt.Errorf("%w: %q, expected %q or %q", ErrInvalidMode, p.Mode, ModeSeries, ModeParallel)
	}

	if len(p.Tasks) == 0 {
		return ErrNoCommands
	}

	return nil
}

// Captured returns the tasks with every command routed through Exec.
// onExec is called with the task index to obtain the callback for that task.
func (p *Plan) Captured(onExec func(index int) spawn.ExecFunc) []spawn.Task {
	out := make([]spawn.Task, len(p.Tasks))

	for i, t := range p.Tasks {
		switch t := t.(type) {
		case spawn.Shell:
			out[i] = spawn.Command{Invocation: spawn.Cmd(string(t)).WithOnExec(onExec(i))}
		case spawn.Command:
			t.OnExec = onExec(i)
			out[i] = t
		default:
			out[i] = t
		}
	}

	return out
}

func label(t spawn.Task, name string) string {
	if name != "" {
		return name
	}

	switch t := t.(type) {
	case spawn.Shell:
		return string(t)
	case spawn.Command:
		return t.String()
	}

	return "func"
}
