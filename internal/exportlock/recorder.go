// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package exportlock

import (
	"context"
	"sync"
	"time"
)

// Hold is one acquire/release interval of a box lock.
type Hold struct {
	Box      string
	Acquired time.Time
	Released time.Time
}

// Overlaps reports whether the two intervals intersect.
func (h Hold) Overlaps(o Hold) bool {
	return h.Acquired.Before(o.Released) && o.Acquired.Before(h.Released)
}

var _ Locker = (*Recorder)(nil)

// Recorder wraps a Locker and records every hold interval.
type Recorder struct {
	Locker Locker

	mu    sync.Mutex
	holds []Hold
}

// Lock implements Locker.
func (r *Recorder) Lock(ctx context.Context, box string) (func(), error) {
	unlock, err := r.Locker.Lock(ctx, box)
	if err != nil {
		return nil, err
	}

	acquired := time.Now()

	var once sync.Once

	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.holds = append(r.holds, Hold{Box: box, Acquired: acquired, Released: time.Now()})
			r.mu.Unlock()
			unlock()
		})
	}, nil
}

// Holds returns a copy of the recorded intervals.
func (r *Recorder) Holds() []Hold {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Hold, len(r.holds))
	copy(out, r.holds)

	return out
}
