// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exportlock serialises box exports by box name.
//
// Exports write to a path derived from the box name alone, so two providers
// exporting the same box would clobber each other's file. The registry holds one
// mutex per box; its key set is fixed at construction and never changes.
package exportlock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
)

// ErrUnregisteredBox is returned when a lock is requested for a box the registry was not built with.
var ErrUnregisteredBox = errors.New("no export lock registered for box")

// Locker hands out exclusive export locks keyed by box name.
type Locker interface {
	// Lock blocks until the box's export lock is held and returns the function that releases it.
	Lock(ctx context.Context, box string) (unlock func(), err error)
}

var _ Locker = (*Registry)(nil)

// Registry is an immutably keyed set of per-box mutexes. It is safe for concurrent use.
type Registry struct {
	locks map[string]*sync.Mutex
}

// New builds a registry with one lock per distinct name in boxes.
func New(boxes []string) *Registry {
	locks := make(map[string]*sync.Mutex, len(boxes))
	for _, b := range boxes {
		if _, ok := locks[b]; !ok {
			locks[b] = &sync.Mutex{}
		}
	}

	return &Registry{locks: locks}
}

// Lock implements Locker.
func (r *Registry) Lock(ctx context.Context, box string) (func(), error) {
	mu, ok := r.locks[box]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredBox, box)
	}

	ctxlog.Debug(ctx, "waiting for export lock", "box", box)
	mu.Lock()
	ctxlog.Debug(ctx, "export lock acquired", "box", box)

	var once sync.Once

	return func() {
		once.Do(func() {
			mu.Unlock()
			ctxlog.Debug(ctx, "export lock released", "box", box)
		})
	}, nil
}

// Len returns the number of registered boxes.
func (r *Registry) Len() int {
	return len(r.locks)
}

// Has reports whether box has a lock.
func (r *Registry) Has(box string) bool {
	_, ok := r.locks[box]
	return ok
}
