// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color paints strings with ANSI escape codes for the log handler and
// the step summaries printed by the CLI.
//
// Colour is decided once at start up: NO_COLOR always disables it, FORCE_COLOR
// enables it, and otherwise it is enabled only when stdout is a terminal.
package color
