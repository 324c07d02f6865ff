// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress reports the life of orchestrated steps as events: a step
// starts, periodically shows its latest output, then completes or fails.
// Events travel over a buffered channel to a single listener so that slow
// output never blocks the steps themselves.
package progress
