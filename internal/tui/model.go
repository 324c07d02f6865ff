// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/childproc/internal/progress"
)

// StepStatus is the display state of a step.
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the step status.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StepRow is one step of the plan.
type StepRow struct {
	Label      string
	Status     StepStatus
	StartTime  time.Time
	EndTime    time.Time
	LastOutput string
	ErrorMsg   string
}

// elapsed returns the run time of the step so far, or zero before it starts.
func (r *StepRow) elapsed(now time.Time) time.Duration {
	switch {
	case r.StartTime.IsZero():
		return 0
	case r.EndTime.IsZero():
		return now.Sub(r.StartTime)
	default:
		return r.EndTime.Sub(r.StartTime)
	}
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// Model is the TUI application state.
type Model struct {
	title     string
	rows      []*StepRow
	viewport  viewport.Model
	spinner   spinner.Model
	styles    *Styles
	width     int
	height    int
	completed bool
	runErr    error
	autoQuit  bool
	quitting  bool
	now       func() time.Time
}

// NewModel creates a model with one pending row per label.
func NewModel(title string, labels []string) *Model {
	rows := make([]*StepRow, len(labels))
	for i, l := range labels {
		rows[i] = &StepRow{Label: l}
	}

	return &Model{
		title:    title,
		rows:     rows,
		viewport: viewport.New(defaultWidth, defaultHeight),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   NewStyles(),
		now:      time.Now,
	}
}

// Rows returns the step rows.
func (m *Model) Rows() []*StepRow {
	return m.rows
}

// Completed reports whether the run has finished.
func (m *Model) Completed() bool {
	return m.completed
}

// apply updates the row an event refers to. Events for unknown indexes are dropped.
func (m *Model) apply(ev progress.Event) {
	if ev.Index < 0 || ev.Index >= len(m.rows) {
		return
	}

	row := m.rows[ev.Index]
	at := ev.Timestamp
	if at.IsZero() {
		at = m.now()
	}

	switch ev.Type {
	case progress.EventStarted:
		// a fast step can report its outcome before its start
		if row.Status == StatusPending {
			row.Status = StatusRunning
		}

		if row.StartTime.IsZero() || at.Before(row.StartTime) {
			row.StartTime = at
		}
	case progress.EventOutput:
		row.LastOutput = lastLine(ev.Message)
	case progress.EventCompleted:
		row.Status = StatusSuccess
		row.EndTime = at
	case progress.EventFailed:
		row.Status = StatusFailed
		row.EndTime = at
		row.ErrorMsg = lastLine(ev.Message)

		if row.ErrorMsg == "" && ev.Err != nil {
			row.ErrorMsg = lastLine(ev.Err.Error())
		}
	case progress.EventSkipped:
		row.Status = StatusSkipped
	}
}

// finish marks the run complete. Rows still pending are skipped and rows
// still running take their final state from the outcome.
func (m *Model) finish(err error) {
	m.completed = true
	m.runErr = err
	now := m.now()

	for _, row := range m.rows {
		switch row.Status {
		case StatusPending:
			row.Status = StatusSkipped
		case StatusRunning:
			row.EndTime = now
			row.Status = StatusSuccess

			if err != nil {
				row.Status = StatusFailed
			}
		}
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimSpace(s)
}
