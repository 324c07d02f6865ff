// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/childproc/internal/ctxlog"
)

// Watch monitors the signal channel until it is closed or ctx is done.
// The first signal of a type is passed to forward, which may be nil.
// The second signal of the same type cancels the context and ends the watch.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc, forward func(os.Signal)) {
	sigMap := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, seen := sigMap[sig]; seen {
				ctxlog.Logger(ctx).Info("watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
				cancel()

				return
			}

			ctxlog.Logger(ctx).Info("watchdog", "detail", "received first signal of type, forwarding to children", "signal", sig.String())

			sigMap[sig] = struct{}{}

			if forward != nil {
				forward(sig)
			}
		}
	}
}
