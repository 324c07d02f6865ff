// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package execute implements the exec subcommand, which runs one command and
// prints its captured output.
package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/signalbroker"
	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/urfave/cli/v3"
)

const (
	inheritFlag = "inherit"
	splitFlag   = "split"
	quietFlag   = "quiet"
	cwdFlag     = "cwd"
	envFlag     = "env"
	shellFlag   = "shell"
	cliExitStr  = ""
)

// ErrInvalidEnv is returned for an --env value that is not KEY=VALUE.
var ErrInvalidEnv = errors.New("invalid environment variable, expected KEY=VALUE")

// ExecCmd is the command that runs a single command.
var ExecCmd = NewExecCmd()

// NewExecCmd returns an exec command with fresh flag state.
func NewExecCmd() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Run one command, capture its output and exit with its exit code",
		ArgsUsage: "-- command [args...]",
		Description: `Run a command and print its standard output once it has finished.

With a single argument the command is a command line run through the shell,
or split into words with --split. With more arguments the first is the program
and the rest are passed to it unchanged.

The command fails when it exits with a non-zero code, is terminated by a signal,
or writes anything to standard error.
`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     inheritFlag,
				Aliases:  []string{"i"},
				Usage:    "Also stream the child's stdout and stderr while capturing them",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     splitFlag,
				Usage:    "Split a command line into words instead of running it through the shell",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     quietFlag,
				Aliases:  []string{"q"},
				Usage:    "Do not announce the command before it starts",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     cwdFlag,
				Usage:    "Working directory of the command",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:    envFlag,
				Aliases: []string{"e"},
				Usage:   "Set an environment variable for the command, as KEY=VALUE. May be repeated.",
			},
			&cli.StringFlag{
				Name:     shellFlag,
				Usage:    "Shell used to run a command line",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

type outcome struct {
	err    error
	stdout string
	code   int
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	args := cmd.Args().Slice()
	if len(args) == 0 {
		logger.Error("Please specify a command to run.")
		return cli.Exit(cliExitStr, 1)
	}

	env, err := parseEnv(cmd.StringSlice(envFlag))
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	spawn.Init(spawn.Options{
		Quiet: cmd.Bool(quietFlag),
		Shell: cmd.String(shellFlag),
	}, spawn.WithOutput(cmd.Writer, cmd.ErrWriter))

	opts := spawn.Options{
		Cwd:   cmd.String(cwdFlag),
		Env:   env,
		Split: cmd.Bool(splitFlag),
	}

	if cmd.Bool(inheritFlag) {
		opts.Stdio = spawn.Stdio{Stdout: spawn.StreamInherit, Stderr: spawn.StreamInherit}
	}

	done := make(chan outcome, 1)
	onExec := spawn.ExecFunc(func(err error, stdout string, code int) {
		done <- outcome{err: err, stdout: stdout, code: code}
	})

	rest := []any{opts, onExec}
	if len(args) > 1 {
		rest = append([]any{args[1:]}, rest...)
	}

	proc, err := spawn.Exec(ctx, args[0], rest...)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to start %s: %s", args[0], err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	signalbroker.ChildrenFrom(ctx).Track(proc)

	res := <-done

	if !cmd.Bool(inheritFlag) {
		io.WriteString(cmd.Writer, res.stdout) //nolint:errcheck
	}

	if res.err == nil {
		return nil
	}

	logger.Debug("command failed", "exitCode", res.code, "error", res.err)

	var cpe *spawn.ChildProcessError
	if errors.As(res.err, &cpe) && cpe.Stderr != "" && !cmd.Bool(inheritFlag) {
		io.WriteString(cmd.ErrWriter, cpe.Stderr) //nolint:errcheck
	}

	return cli.Exit(cliExitStr, exitCode(res.code))
}

// exitCode maps a child's exit code to ours. A child that failed with code 0
// (stderr output) or was signalled (-1) still fails the command.
func exitCode(code int) int {
	if code > 0 {
		return code
	}

	return 1
}

func parseEnv(vars []string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(vars))

	for _, v := range vars {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, v)
		}

		env[key] = value
	}

	return env, nil
}
