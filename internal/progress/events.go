// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is an update about one step.
type Event struct {
	Index     int       // position of the step in its plan
	Label     string    // human readable step name
	Type      EventType // what happened
	Message   string    // latest output line for EventOutput
	Timestamp time.Time // when the event occurred
	Elapsed   time.Duration
	ExitCode  int   // for EventCompleted and EventFailed
	Err       error // for EventFailed
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a step has been launched.
	EventStarted EventType = iota
	// EventOutput carries the latest output of a running step.
	EventOutput
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the step failed.
	EventFailed
	// EventSkipped indicates the step never ran because an earlier one failed.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Reporter accepts events from running steps.
type Reporter interface {
	// Report must not block.
	Report(event Event)
	// Close flushes pending events and stops the reporter.
	Close()
}

// Listener receives events from a Reporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}
