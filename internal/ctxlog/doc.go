// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes human readable lines to stderr through PrettyHandler.
// Its level comes from the environment: <EXECUTABLE>_LOG_LEVEL is consulted first,
// then CHILDPROC_LOG_LEVEL. Values are parsed by slog (DEBUG, INFO, WARN, ERROR,
// optionally with an offset such as INFO+2); anything else yields WARN.
package ctxlog
