// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"errors"
	"io"
	"os"
	"sync"
)

// pipeStream is the parent end of a piped output stream of a Spawn child.
//
// It ends once: when a read reaches EOF, when the caller closes it, or when
// the child exits before the stream was claimed and it has been drained.
// Ending closes the descriptor and calls the end hook.
type pipeStream struct {
	f     *os.File
	onEnd func()

	mu      sync.Mutex
	claimed bool
	ended   bool
	once    sync.Once
}

func newPipeStream(f *os.File, claimed bool, onEnd func()) *pipeStream {
	return &pipeStream{f: f, claimed: claimed, onEnd: onEnd}
}

// claim marks the stream as owned by the caller, who must read it to EOF or close it.
func (s *pipeStream) claim() *pipeStream {
	s.mu.Lock()
	s.claimed = true
	s.mu.Unlock()

	return s
}

// Read implements io.Reader. Reads after the stream has ended return io.EOF.
func (s *pipeStream) Read(b []byte) (int, error) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()

	if ended {
		return 0, io.EOF
	}

	n, err := s.f.Read(b)

	switch {
	case errors.Is(err, io.EOF):
		s.end()
	case errors.Is(err, os.ErrClosed):
		return n, io.EOF
	}

	return n, err //nolint:wrapcheck
}

// Close implements io.Closer. Closing an ended stream is not an error.
func (s *pipeStream) Close() error {
	s.end()
	return nil
}

// release runs once the child has exited. An unclaimed stream is drained
// and discarded; a claimed one is left to the caller.
func (s *pipeStream) release() {
	s.mu.Lock()

	if s.claimed {
		s.mu.Unlock()
		return
	}

	s.ended = true
	s.mu.Unlock()

	_, _ = io.Copy(io.Discard, s.f)

	s.end()
}

func (s *pipeStream) end() {
	s.once.Do(func() {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()

		_ = s.f.Close()

		if s.onEnd != nil {
			s.onEnd()
		}
	})
}
