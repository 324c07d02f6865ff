// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the childproc command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/childproc"
	"github.com/matt-FFFFFF/childproc/cmd/childproc/execute"
	"github.com/matt-FFFFFF/childproc/cmd/childproc/quote"
	"github.com/matt-FFFFFF/childproc/cmd/childproc/run"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/matt-FFFFFF/childproc/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		execute.ExecCmd,
		quote.QuoteCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "childproc",
	Description: `childproc launches child processes and runs groups of them,
either one after another stopping at the first failure, or all at once
reporting every failure by position.`,
	Usage:     "childproc run -f plan.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	children := &signalbroker.Children{}
	ctx = signalbroker.WithChildren(ctx, children)

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel, children.Forwarder(ctx))

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", childproc.Version, childproc.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
