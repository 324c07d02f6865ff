// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Announcement describes a command that is about to start.
type Announcement struct {
	Command string    // display rendering of the command, see QuoteArg
	Cwd     string    // working directory from the options, empty for the parent's
	User    string    // current user name
	Host    string    // host name
	Options Options   // the fully merged options the child will start with
	Out     io.Writer // the spawner's standard output
}

// PromptFunc is the announcement hook. Its only purpose is observation:
// a panic inside it is recovered and logged and the launch goes ahead.
type PromptFunc func(Announcement)

var (
	promptIdentity = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	promptCwd      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// DefaultPrompt prints a shell style prompt followed by the command:
//
//	user@host /current/dir
//	$ command arg "spaced arg"
func DefaultPrompt(a Announcement) {
	out := a.Out
	if out == nil {
		out = os.Stdout
	}

	cwd := a.Cwd
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	fmt.Fprintf(out, "%s %s\n$ %s\n", //nolint:errcheck
		promptIdentity.Render(a.User+"@"+a.Host),
		promptCwd.Render(cwd),
		a.Command,
	)
}

// LookupIdentity returns the user and host names shown in announcements.
// The result is computed once.
var LookupIdentity = sync.OnceValues(func() (string, string) {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		name = u.Username
	}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	return name, host
})
