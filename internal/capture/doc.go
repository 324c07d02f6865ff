// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package capture records a child process output stream.
//
// A Stream reads from a pipe, keeps every chunk in arrival order, optionally
// copies each chunk to a pass-through writer as soon as it is read, and tracks
// the last complete line so long running commands can report progress.
package capture
