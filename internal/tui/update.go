// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/childproc/internal/progress"
)

const (
	defaultWidth         = 80
	defaultHeight        = 20
	minViewportWidth     = 20
	reservedLines        = 6 // title, border and help
	durationRounding     = 100 * time.Millisecond
	minHelpVisibleHeight = 10
	ellipsis             = "…"
)

// EventMsg carries a progress event into the program.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg reports that the run has finished with Err.
type DoneMsg struct {
	Err error
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, minViewportWidth)
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.finish(msg.Err)

		if m.autoQuit {
			m.quitting = true
			return m, tea.Quit
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content strings.Builder

	for _, row := range m.rows {
		m.renderRow(&content, row)
	}

	if m.completed {
		content.WriteString("\n")

		if m.runErr != nil {
			content.WriteString(m.styles.Failed.Render("Run completed with errors"))
		} else {
			content.WriteString(m.styles.Success.Render("Run completed successfully"))
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height == 0 || m.height > minHelpVisibleHeight {
		view.WriteString("\n")

		help := "↑/↓ to scroll, 'q' to quit and stop the run"
		if m.completed {
			help = "↑/↓ to scroll, 'q' to quit"
		}

		view.WriteString(m.styles.Help.Render(help))
	}

	return view.String()
}

func (m *Model) renderRow(b *strings.Builder, row *StepRow) {
	var (
		icon  string
		style lipgloss.Style
	)

	switch row.Status {
	case StatusRunning:
		icon, style = m.spinner.View(), m.styles.Running
	case StatusSuccess:
		icon, style = "✔", m.styles.Success
	case StatusFailed:
		icon, style = "✘", m.styles.Failed
	case StatusSkipped:
		icon, style = "-", m.styles.Pending
	default:
		icon, style = "·", m.styles.Pending
	}

	left := fmt.Sprintf("%s %s", icon, row.Label)

	if d := row.elapsed(m.now()); d > 0 {
		left += fmt.Sprintf(" (%v)", d.Round(durationRounding))
	}

	var right string

	switch {
	case row.Status == StatusFailed && row.ErrorMsg != "":
		right = m.styles.Error.Render(truncate(row.ErrorMsg, m.viewport.Width/2))
	case row.Status == StatusRunning && row.LastOutput != "":
		right = m.styles.Output.Render(truncate(row.LastOutput, m.viewport.Width/2))
	}

	leftWidth := m.viewport.Width / 2
	left = truncate(left, leftWidth)

	b.WriteString(style.Render(left))

	if right != "" {
		b.WriteString(strings.Repeat(" ", max(leftWidth-lipgloss.Width(left), 1)))
		b.WriteString(right)
	}

	b.WriteString("\n")
}

// truncate shortens s to width cells, ending in an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)+ellipsis) > width {
		runes = runes[:len(runes)-1]
	}

	return string(runes) + ellipsis
}
