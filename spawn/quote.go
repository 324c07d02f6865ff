// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"strings"
	"unicode"
)

// QuoteArg quotes an argument for display. Text containing whitespace or a
// double quote is wrapped in double quotes with every embedded double quote
// prefixed by a backslash; anything else is returned unchanged.
//
// The result is meant for humans reading announcements and logs. It is not
// a shell escaping function.
func QuoteArg(arg string) string {
	if !strings.ContainsFunc(arg, needsQuote) {
		return arg
	}

	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}

func needsQuote(r rune) bool {
	return r == '"' || unicode.IsSpace(r)
}

// renderCommand renders a command the way the announcement shows it.
func renderCommand(command string, args []string, hasArgs bool) string {
	if !hasArgs || len(args) == 0 {
		return command
	}

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteArg(a)
	}

	return command + " " + strings.Join(quoted, " ")
}
