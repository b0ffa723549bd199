// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pool runs jobs on a fixed number of concurrent workers and streams
// their results back in completion order.
package pool

import (
	"context"
	"iter"

	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/matt-FFFFFF/autobox/internal/job"
	"golang.org/x/sync/errgroup"
)

// Builder runs one job to completion.
type Builder interface {
	Build(ctx context.Context, j job.Job) job.Result
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, j job.Job) job.Result

// Build implements Builder.
func (f BuilderFunc) Build(ctx context.Context, j job.Job) job.Result {
	return f(ctx, j)
}

// Pool bounds how many jobs run at once.
type Pool struct {
	Workers int     // Maximum jobs in flight; values < 1 mean 1.
	Builder Builder // Runs each job.
	Buffer  int     // Result channel capacity. At least the job count keeps workers from waiting on the consumer.
}

// Run pulls jobs from seq, runs them on at most Workers goroutines and sends
// each Result on the returned channel as soon as its job finishes. The channel
// is closed once seq is exhausted and every started job has reported.
// The caller must drain the channel.
func (p *Pool) Run(ctx context.Context, seq iter.Seq[job.Job]) <-chan job.Result {
	workers := max(p.Workers, 1)
	results := make(chan job.Result, max(p.Buffer, 0))

	go func() {
		defer close(results)

		var g errgroup.Group

		g.SetLimit(workers)

		dispatched := 0

		for j := range seq {
			dispatched++

			ctxlog.Debug(ctx, "dispatching job", "job", j.String(), "seq", dispatched)

			g.Go(func() error {
				results <- p.Builder.Build(ctx, j)
				return nil
			})
		}

		_ = g.Wait()

		ctxlog.Debug(ctx, "all jobs reported", "count", dispatched)
	}()

	return results
}
