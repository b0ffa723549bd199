// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
)

// Watch consumes sigCh until it is closed or done is closed.
// The first signal calls stop. A repeat of an already seen signal calls force and returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, done <-chan struct{}, stop context.CancelFunc, force func()) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-done:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "received second signal, forcing exit", "signal", sig.String())
				force()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Warn(ctx, "received signal, no new jobs will be started; running jobs will finish",
				"signal", sig.String())
			stop()
		}
	}
}
