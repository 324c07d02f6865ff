// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package join provides a barrier over a fixed set of named completion sources.
//
// A Barrier is created with every source it waits for. Each source reports
// once through Arrive; the callback runs exactly once, on the goroutine of
// whichever source arrives last. Unknown and repeated arrivals are ignored,
// so a late or duplicated event can neither finalize early nor finalize twice.
package join

import (
	"slices"
	"sync"
)

// Barrier waits for every source in a fixed set.
type Barrier[K comparable] struct {
	mu      sync.Mutex
	pending map[K]struct{}
	order   []K
	fn      func()
	done    chan struct{}
}

// New returns a barrier that calls fn once all sources have arrived.
// With no sources fn is called before New returns.
func New[K comparable](fn func(), sources ...K) *Barrier[K] {
	b := &Barrier[K]{
		pending: make(map[K]struct{}, len(sources)),
		order:   slices.Clone(sources),
		fn:      fn,
		done:    make(chan struct{}),
	}

	for _, s := range sources {
		b.pending[s] = struct{}{}
	}

	if len(b.pending) == 0 {
		b.finish()
	}

	return b
}

// Arrive records source as complete. It reports true only for the arrival
// that completed the barrier.
func (b *Barrier[K]) Arrive(source K) bool {
	b.mu.Lock()

	if _, ok := b.pending[source]; !ok {
		b.mu.Unlock()
		return false
	}

	delete(b.pending, source)
	last := len(b.pending) == 0
	b.mu.Unlock()

	if last {
		b.finish()
	}

	return last
}

// Pending returns the sources that have not arrived, in creation order.
func (b *Barrier[K]) Pending() []K {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []K

	for _, s := range b.order {
		if _, ok := b.pending[s]; ok {
			out = append(out, s)
		}
	}

	return out
}

// Done is closed after the callback has returned.
func (b *Barrier[K]) Done() <-chan struct{} {
	return b.done
}

func (b *Barrier[K]) finish() {
	defer close(b.done)

	if b.fn != nil {
		b.fn()
	}
}
