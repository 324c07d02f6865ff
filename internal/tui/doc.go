// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a terminal user interface for watching a plan run.
// It shows one row per step with its status, elapsed time and the last
// output line of a running step, driven by progress events.
package tui
