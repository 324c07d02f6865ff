// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/childproc/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedModel(labels ...string) *Model {
	m := NewModel("plan", labels)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start.Add(time.Second) }

	return m
}

func TestStepStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "unknown", StepStatus(42).String())
}

func TestModelEvents(t *testing.T) {
	t.Parallel()

	m := fixedModel("build", "test", "lint")

	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventStarted}})
	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventOutput, Message: "one\ntwo  \n"}})

	rows := m.Rows()
	assert.Equal(t, StatusRunning, rows[0].Status)
	assert.Equal(t, "two", rows[0].LastOutput)
	assert.False(t, rows[0].StartTime.IsZero())

	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventCompleted}})
	m.Update(EventMsg{Event: progress.Event{Index: 1, Type: progress.EventStarted}})
	m.Update(EventMsg{Event: progress.Event{Index: 1, Type: progress.EventFailed, Err: errors.New("exit code 2")}})
	m.Update(EventMsg{Event: progress.Event{Index: 7, Type: progress.EventStarted}})

	assert.Equal(t, StatusSuccess, rows[0].Status)
	assert.Equal(t, StatusFailed, rows[1].Status)
	assert.Equal(t, "exit code 2", rows[1].ErrorMsg)
	assert.Equal(t, StatusPending, rows[2].Status)
}

func TestModelDone(t *testing.T) {
	t.Parallel()

	t.Run("pending rows are skipped", func(t *testing.T) {
		t.Parallel()

		m := fixedModel("a", "b")
		m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventStarted}})

		_, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
		assert.Nil(t, cmd)
		assert.True(t, m.Completed())
		assert.Equal(t, StatusFailed, m.Rows()[0].Status)
		assert.Equal(t, StatusSkipped, m.Rows()[1].Status)
		assert.Contains(t, m.View(), "completed with errors")
	})

	t.Run("auto quit", func(t *testing.T) {
		t.Parallel()

		m := fixedModel("a")
		m.autoQuit = true

		_, cmd := m.Update(DoneMsg{})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})
}

func TestModelKeys(t *testing.T) {
	t.Parallel()

	m := fixedModel("a")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModelView(t *testing.T) {
	t.Parallel()

	m := fixedModel("build", "test")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventStarted}})
	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventOutput, Message: "compiling"}})

	view := m.View()
	assert.Contains(t, view, "plan")
	assert.Contains(t, view, "build")
	assert.Contains(t, view, "compiling")
	assert.Contains(t, view, "test")
	assert.Contains(t, view, "'q' to quit")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
	assert.Equal(t, "anything", truncate("anything", 0))
}

func TestRunner(t *testing.T) {
	t.Parallel()

	r := NewRunner("plan", []string{"a", "b"},
		WithAutoQuit(),
		WithProgramOptions(tea.WithInput(&bytes.Buffer{}), tea.WithOutput(io.Discard)),
	)

	boom := errors.New("boom")

	err := r.Run(context.Background(), func(_ context.Context, rep progress.Reporter) error {
		rep.Report(progress.Event{Index: 0, Type: progress.EventStarted})
		rep.Report(progress.Event{Index: 0, Type: progress.EventCompleted})
		rep.Report(progress.Event{Index: 1, Type: progress.EventStarted})

		return boom
	})

	require.ErrorIs(t, err, boom)

	rows := r.Model().Rows()
	assert.Equal(t, StatusSuccess, rows[0].Status)
	assert.Equal(t, StatusFailed, rows[1].Status)
}

func TestRunnerCancelled(t *testing.T) {
	t.Parallel()

	r := NewRunner("plan", []string{"a"},
		WithProgramOptions(tea.WithInput(&bytes.Buffer{}), tea.WithOutput(io.Discard)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	go func() {
		<-started
		cancel()
	}()

	err := r.Run(ctx, func(ctx context.Context, _ progress.Reporter) error {
		close(started)
		<-ctx.Done()

		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestModelOutcomeBeforeStart(t *testing.T) {
	t.Parallel()

	m := fixedModel("fast")
	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventCompleted}})
	m.Update(EventMsg{Event: progress.Event{Index: 0, Type: progress.EventStarted}})
	m.Update(DoneMsg{Err: errors.New("another step failed")})

	assert.Equal(t, StatusSuccess, m.Rows()[0].Status)
}
