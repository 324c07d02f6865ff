// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

// Signaler is a child that can receive signals.
type Signaler interface {
	SendSignal(sig os.Signal) error
	Done() <-chan struct{}
}

// Children tracks running children so that signals can be forwarded to them.
// The zero value is ready to use.
type Children struct {
	mu    sync.Mutex
	procs map[Signaler]struct{}
}

// Track adds c until it is done.
func (ch *Children) Track(c Signaler) {
	ch.mu.Lock()

	if ch.procs == nil {
		ch.procs = make(map[Signaler]struct{})
	}

	ch.procs[c] = struct{}{}
	ch.mu.Unlock()

	go func() {
		<-c.Done()

		ch.mu.Lock()
		delete(ch.procs, c)
		ch.mu.Unlock()
	}()
}

// Len returns the number of running children.
func (ch *Children) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return len(ch.procs)
}

// Forwarder returns a function for Watch that sends a signal to every running child.
func (ch *Children) Forwarder(ctx context.Context) func(os.Signal) {
	return func(sig os.Signal) {
		ch.mu.Lock()
		defer ch.mu.Unlock()

		for c := range ch.procs {
			if err := c.SendSignal(sig); err != nil {
				ctxlog.Warn(ctx, "failed to forward signal", "signal", sig.String(), "error", err)
			}
		}
	}
}

type childrenKey struct{}

// WithChildren returns a copy of ctx carrying ch.
func WithChildren(ctx context.Context, ch *Children) context.Context {
	return context.WithValue(ctx, childrenKey{}, ch)
}

// ChildrenFrom returns the registry carried by ctx, or a new empty one.
func ChildrenFrom(ctx context.Context) *Children {
	if ch, ok := ctx.Value(childrenKey{}).(*Children); ok && ch != nil {
		return ch
	}

	return &Children{}
}
