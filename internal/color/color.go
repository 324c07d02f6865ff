// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi   = "\033["
	sgr   = "m"
	reset = csi + "0" + sgr
)

// Code is an SGR parameter.
type Code int

// Attributes.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground colours.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Hi-intensity foreground colours.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled atomic.Bool

func init() {
	enabled.Store(detect(os.Getenv, term.IsTerminal(int(os.Stdout.Fd()))))
}

// Enabled reports whether Colorize emits escape codes.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides the start up detection and returns the previous value.
func SetEnabled(v bool) bool {
	return enabled.Swap(v)
}

// Colorize wraps str in the given codes followed by a reset.
// It returns str unchanged when colour is disabled or no codes are given.
func Colorize(str string, codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return str
	}

	return sequence(codes) + str + reset
}

func sequence(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}

	return csi + strings.Join(parts, ";") + sgr
}

func detect(getenv func(string) string, isTerminal bool) bool {
	if getenv(NoColor) != "" {
		return false
	}

	if getenv(ForceColor) != "" {
		return true
	}

	return isTerminal
}
