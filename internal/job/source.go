// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"iter"
	"time"

	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"golang.org/x/time/rate"
)

// DefaultPace is the delay between successive job emissions.
// Starting VM builds back to back overloads the hypervisor host.
const DefaultPace = 50 * time.Second

// Source returns the jobs for every provider and box, providers outermost, boxes innermost.
// Successive emissions are spaced at least pace apart; pace <= 0 disables pacing.
// The sequence stops early if ctx is cancelled. It is single use.
func Source(ctx context.Context, providers, boxes []string, datestamp string, pace time.Duration) iter.Seq[Job] {
	limit := rate.Inf
	if pace > 0 {
		limit = rate.Every(pace)
	}

	limiter := rate.NewLimiter(limit, 1)
	used := false

	return func(yield func(Job) bool) {
		if used {
			return
		}

		used = true

		for _, provider := range providers {
			for _, box := range boxes {
				if err := limiter.Wait(ctx); err != nil {
					ctxlog.Info(ctx, "job source stopped", "reason", err)
					return
				}

				if !yield(Job{Provider: provider, Box: box, Datestamp: datestamp}) {
					return
				}
			}
		}
	}
}

// Count returns how many jobs Source will emit for the given inputs.
func Count(providers, boxes []string) int {
	return len(providers) * len(boxes)
}
