// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package capture

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
)

const chunkSize = 32 * 1024

// Stream captures everything read from an underlying reader.
// Accessors are safe for concurrent use while Drain is running.
type Stream struct {
	r    io.Reader
	echo io.Writer

	mu       sync.RWMutex
	buf      bytes.Buffer
	chunks   int
	lastLine string
	partial  strings.Builder
	echoErr  error
}

// New returns a Stream reading from r. When echo is not nil every chunk is
// written to it immediately after being buffered.
func New(r io.Reader, echo io.Writer) *Stream {
	return &Stream{r: r, echo: echo}
}

// Read implements io.Reader, recording what passes through.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.record(p[:n])
	}

	return n, err //nolint:wrapcheck
}

// Drain reads until end of stream. Reading from a closed pipe counts as end of stream.
func (s *Stream) Drain() error {
	buf := make([]byte, chunkSize)

	for {
		_, err := s.Read(buf)

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, fs.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

func (s *Stream) record(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(chunk)
	s.chunks++
	s.trackLines(string(chunk))

	if s.echo != nil && s.echoErr == nil {
		// a broken pass-through must not stop the capture
		if _, err := s.echo.Write(chunk); err != nil {
			s.echoErr = err
		}
	}
}

// trackLines must be called with the write lock held.
func (s *Stream) trackLines(data string) {
	s.partial.WriteString(data)

	combined := s.partial.String()

	idx := strings.LastIndexByte(combined, '\n')
	if idx < 0 {
		return
	}

	complete := combined[:idx]
	if prev := strings.LastIndexByte(complete, '\n'); prev >= 0 {
		complete = complete[prev+1:]
	}

	s.lastLine = strings.TrimSuffix(complete, "\r")
	rest := combined[idx+1:]

	s.partial.Reset()
	s.partial.WriteString(rest)
}

// String returns all captured data.
func (s *Stream) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.buf.String()
}

// Bytes returns a copy of all captured data.
func (s *Stream) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return bytes.Clone(s.buf.Bytes())
}

// Len returns the number of captured bytes.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.buf.Len()
}

// Chunks returns how many reads produced data.
func (s *Stream) Chunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chunks
}

// LastLine returns the last complete line. If max > 3 and the line is longer
// than max bytes it is truncated and suffixed with "...".
func (s *Stream) LastLine(max int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if max > 3 && len(s.lastLine) > max {
		return s.lastLine[:max-3] + "..."
	}

	return s.lastLine
}

// PartialLine returns data read after the last newline.
func (s *Stream) PartialLine() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.partial.String()
}

// EchoErr returns the first error returned by the pass-through writer.
func (s *Stream) EchoErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.echoErr
}
