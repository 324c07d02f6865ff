// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

const (
	goosWindows          = "windows"
	binSh                = "/bin/sh"
	cmdExe               = "cmd.exe"
	commandSwitchUnix    = "-c"
	commandSwitchWindows = "/C"
	winSystemRootEnv     = "SystemRoot"
	winSystem32          = "System32"
)

// argv resolves what to start: the program and its arguments.
func argv(ctx context.Context, inv Invocation, opts Options) (string, []string, error) {
	switch {
	case inv.HasArgs:
		return inv.Command, slices.Clone(inv.Args), nil

	case opts.Split:
		words, err := shellquote.Split(inv.Command)
		if err != nil {
			return "", nil, invalidArg(0, inv.Command, fmt.Sprintf("cannot split command line: %v", err))
		}

		if len(words) == 0 {
			return "", nil, invalidArg(0, inv.Command, "command line has no words")
		}

		return words[0], words[1:], nil
	}

	shell := opts.Shell
	if shell == "" {
		shell = defaultShell(ctx)
	}

	return shell, []string{commandSwitch(shell), inv.Command}, nil
}

func commandSwitch(shell string) string {
	if runtime.GOOS != goosWindows {
		return commandSwitchUnix
	}

	if base := strings.ToLower(filepath.Base(shell)); base == cmdExe || base == "cmd" {
		return commandSwitchWindows
	}

	return commandSwitchUnix
}

func defaultShell(ctx context.Context) string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}
