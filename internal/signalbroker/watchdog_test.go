// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type forwarded struct {
	mu   sync.Mutex
	sigs []os.Signal
}

func (f *forwarded) forward(sig os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sigs = append(f.sigs, sig)
}

func (f *forwarded) got() []os.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]os.Signal(nil), f.sigs...)
}

func TestWatch_FirstSignalIsForwarded(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 1)
	fwd := &forwarded{}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel, fwd.forward)
	}()

	sigCh <- os.Interrupt

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err(), "context should not be cancelled after first signal")
	assert.Equal(t, []os.Signal{os.Interrupt}, fwd.got())

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)
	fwd := &forwarded{}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel, fwd.forward)
	}()

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	wg.Wait()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, []os.Signal{os.Interrupt}, fwd.got(), "the second signal is not forwarded")
}

func TestWatch_DifferentSignalsNoCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel, nil)
	}()

	sigCh <- os.Interrupt
	sigCh <- os.Kill

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err(), "context should not be cancelled for different signals")

	close(sigCh)
	wg.Wait()
}

func TestWatch_StopsWhenContextDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal)

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, cancel, nil)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}
