// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

const testTimeout = 10 * time.Second

// syncBuffer is a bytes.Buffer safe for the concurrent writes of output pumps.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func testContext() context.Context {
	return ctxlog.New(context.Background(), ctxlog.DefaultLogger)
}

// quietSpawner writes nothing to the test output and runs shell lines with /bin/sh.
func quietSpawner(t *testing.T) (*Spawner, *syncBuffer, *syncBuffer) {
	t.Helper()
	requirePOSIX(t)

	stdout, stderr := &syncBuffer{}, &syncBuffer{}

	return New(Options{Quiet: true, Shell: binSh}, WithOutput(stdout, stderr)), stdout, stderr
}

func requirePOSIX(t *testing.T) {
	t.Helper()

	if runtime.GOOS == goosWindows {
		t.Skip("requires a POSIX shell")
	}
}

// waitFor returns the value sent on ch or fails the test after testTimeout.
func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}

	var zero T

	return zero
}
