// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"io"
	"os"
	"sync/atomic"
)

// Spawner launches processes with a fixed set of default options.
// A Spawner is safe for concurrent use.
type Spawner struct {
	defaults Options
	stdout   io.Writer
	stderr   io.Writer
}

// SpawnerOption configures a Spawner.
type SpawnerOption func(*Spawner)

// WithOutput sets where announcements and echoed Exec output are written.
// Nil writers keep the process's own standard streams.
func WithOutput(stdout, stderr io.Writer) SpawnerOption {
	return func(s *Spawner) {
		if stdout != nil {
			s.stdout = stdout
		}

		if stderr != nil {
			s.stderr = stderr
		}
	}
}

// LibraryDefaults returns the options every spawner starts from:
// the default prompt and otherwise zero values.
func LibraryDefaults() Options {
	return Options{Prompt: DefaultPrompt}
}

// New returns a Spawner whose defaults are layered over LibraryDefaults.
func New(defaults Options, opts ...SpawnerOption) *Spawner {
	s := &Spawner{
		defaults: LibraryDefaults().Merge(defaults),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Defaults returns a copy of the spawner's default options.
func (s *Spawner) Defaults() Options {
	return Options{}.Merge(s.defaults)
}

var defaultSpawner atomic.Pointer[Spawner]

func init() {
	defaultSpawner.Store(New(Options{}))
}

// Default returns the spawner used by the package level functions.
func Default() *Spawner {
	return defaultSpawner.Load()
}

// Init replaces the spawner used by the package level functions and returns it.
// Calls already in flight keep the spawner they started with.
func Init(defaults Options, opts ...SpawnerOption) *Spawner {
	s := New(defaults, opts...)
	defaultSpawner.Store(s)

	return s
}

// Defaults returns a copy of the default spawner's options.
func Defaults() Options {
	return Default().Defaults()
}
