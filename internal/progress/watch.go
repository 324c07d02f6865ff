// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"time"
)

const maxLineLength = 120

// Running is what Watch needs from a running step.
type Running interface {
	Done() <-chan struct{}
	Elapsed() time.Duration
	LastLine(max int) string
}

// Watch reports an EventOutput for r every interval until r is done or ctx is cancelled.
// It blocks; run it on its own goroutine.
func Watch(ctx context.Context, rep Reporter, index int, label string, r Running, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rep.Report(Event{
				Index:   index,
				Label:   label,
				Type:    EventOutput,
				Message: r.LastLine(maxLineLength),
				Elapsed: r.Elapsed().Round(time.Second),
			})
		case <-r.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}
