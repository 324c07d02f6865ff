// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package quote implements the quote subcommand.
package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/childproc/spawn"
	"github.com/urfave/cli/v3"
)

const (
	posixFlag = "posix"
	joinFlag  = "join"
)

// QuoteCmd is the command that quotes its arguments for a command line.
var QuoteCmd = NewQuoteCmd()

// NewQuoteCmd returns a quote command with fresh flag state.
func NewQuoteCmd() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "Quote arguments so they survive a command line",
		ArgsUsage: "[args...]",
		Description: `Print each argument quoted the way spawned command lines quote them:
arguments containing whitespace or a double quote are wrapped in double quotes
and their double quotes escaped.

With --posix the arguments are quoted with POSIX shell rules instead.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     posixFlag,
				Usage:    "Quote with POSIX shell rules",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     joinFlag,
				Aliases:  []string{"j"},
				Usage:    "Print the quoted arguments on one line separated by spaces",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	quoted := make([]string, len(args))

	for i, a := range args {
		if cmd.Bool(posixFlag) {
			quoted[i] = shellquote.Join(a)
			continue
		}

		quoted[i] = spawn.QuoteArg(a)
	}

	if cmd.Bool(joinFlag) {
		_, err := fmt.Fprintln(cmd.Writer, strings.Join(quoted, " "))
		return err
	}

	for _, q := range quoted {
		if _, err := fmt.Fprintln(cmd.Writer, q); err != nil {
			return err
		}
	}

	return nil
}
