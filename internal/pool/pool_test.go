// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matt-FFFFFF/autobox/internal/artifact"
	"github.com/matt-FFFFFF/autobox/internal/exportlock"
	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/matt-FFFFFF/autobox/internal/provisioner"
	"github.com/matt-FFFFFF/autobox/internal/provisioner/provisionertest"
	"github.com/matt-FFFFFF/autobox/internal/worker"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func collect(ch <-chan job.Result) []job.Result {
	var out []job.Result
	for r := range ch {
		out = append(out, r)
	}

	return out
}

func sleepBuilder(delays map[string]time.Duration) Builder {
	return BuilderFunc(func(_ context.Context, j job.Job) job.Result {
		time.Sleep(delays[j.Box])
		return job.Result{Provider: j.Provider, Box: j.Box}
	})
}

func TestRun_EveryJobReportsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	providers := []string{"vbox", "fusion"}
	boxes := []string{"a", "b", "c", "d", "e"}

	p := &Pool{Workers: 3, Builder: sleepBuilder(nil)}
	results := collect(p.Run(context.Background(), job.Source(context.Background(), providers, boxes, "d", 0)))

	require.Len(t, results, job.Count(providers, boxes))

	seen := map[string]int{}
	for _, r := range results {
		seen[r.Provider+"/"+r.Box]++
	}

	for _, pr := range providers {
		for _, b := range boxes {
			assert.Equal(t, 1, seen[pr+"/"+b], pr+"/"+b)
		}
	}
}

func TestRun_CompletionOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &Pool{Workers: 2, Builder: sleepBuilder(map[string]time.Duration{
		"slow": 150 * time.Millisecond,
		"fast": 10 * time.Millisecond,
	})}

	results := collect(p.Run(context.Background(), job.Source(context.Background(), []string{"vbox"}, []string{"slow", "fast"}, "d", 0)))

	require.Len(t, results, 2)
	assert.Equal(t, "fast", results[0].Box, "results arrive as jobs finish, not in submission order")
	assert.Equal(t, "slow", results[1].Box)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32

	b := BuilderFunc(func(_ context.Context, j job.Job) job.Result {
		n := inFlight.Add(1)
		for {
			m := peak.Load()
			if n <= m || peak.CompareAndSwap(m, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)

		return job.Result{Provider: j.Provider, Box: j.Box}
	})

	p := &Pool{Workers: 2, Builder: b}
	results := collect(p.Run(context.Background(), job.Source(context.Background(), []string{"vbox"}, []string{"a", "b", "c", "d", "e", "f"}, "d", 0)))

	assert.Len(t, results, 6)
	assert.Equal(t, int32(2), peak.Load())
}

func TestRun_ZeroWorkersMeansOne(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &Pool{Builder: sleepBuilder(nil)}
	results := collect(p.Run(context.Background(), job.Source(context.Background(), []string{"vbox"}, []string{"a", "b"}, "d", 0)))

	assert.Len(t, results, 2)
}

func TestRun_CancelledSourceStillReportsStartedJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 10)

	b := BuilderFunc(func(_ context.Context, j job.Job) job.Result {
		started <- struct{}{}
		time.Sleep(20 * time.Millisecond)

		return job.Result{Provider: j.Provider, Box: j.Box}
	})

	p := &Pool{Workers: 1, Builder: b}
	ch := p.Run(ctx, job.Source(ctx, []string{"vbox"}, []string{"a", "b", "c"}, "d", 50*time.Millisecond))

	<-started
	cancel()

	results := collect(ch)
	assert.Len(t, results, len(started)+1)
	assert.Less(t, len(results), 3)
}

type pipeline struct {
	fake  *provisionertest.Fake
	locks *exportlock.Recorder
	pool  *Pool
}

func newPipeline(t *testing.T, workers int, boxes []string, exportDelay time.Duration) *pipeline {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/logs", 0o755))

	fake := &provisionertest.Fake{
		FS:       fs,
		BoxDir:   "/work",
		Outcomes: map[string]provisionertest.Outcome{},
	}

	for _, pr := range []string{"vbox", "fusion"} {
		for _, b := range boxes {
			fake.Outcomes[provisionertest.Key(provisioner.VerbExport, pr, b)] = provisionertest.Outcome{Delay: exportDelay}
		}
	}

	locks := &exportlock.Recorder{Locker: exportlock.New(boxes)}

	return &pipeline{
		fake:  fake,
		locks: locks,
		pool: &Pool{
			Workers: workers,
			Builder: &worker.Worker{
				Provisioner: fake,
				Locks:       locks,
				Layout:      artifact.Layout{FS: fs, BoxDir: "/work", LogDir: "/logs"},
			},
		},
	}
}

func TestRun_ExportsOfSameBoxNeverOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)

	boxes := []string{"a"}
	pl := newPipeline(t, 4, boxes, 30*time.Millisecond)

	results := collect(pl.pool.Run(context.Background(), job.Source(context.Background(), []string{"vbox", "fusion"}, boxes, "d", 0)))
	require.Len(t, results, 2)

	for _, r := range results {
		assert.True(t, r.Succeeded(), r)
	}

	holds := pl.locks.Holds()
	require.Len(t, holds, 2)
	assert.False(t, holds[0].Overlaps(holds[1]))

	exports := slices.Concat(
		pl.fake.CallsFor(provisioner.VerbExport, "vbox", "a"),
		pl.fake.CallsFor(provisioner.VerbExport, "fusion", "a"),
	)
	require.Len(t, exports, 2)
	assert.False(t, exports[0].Start.Before(exports[1].End) && exports[1].Start.Before(exports[0].End),
		"export processes for the same box ran concurrently")
}

func TestRun_ExportsOfDifferentBoxesMayOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)

	boxes := []string{"a", "b"}
	pl := newPipeline(t, 2, boxes, 100*time.Millisecond)

	results := collect(pl.pool.Run(context.Background(), job.Source(context.Background(), []string{"vbox"}, boxes, "d", 0)))
	require.Len(t, results, 2)

	holds := pl.locks.Holds()
	require.Len(t, holds, 2)
	assert.True(t, holds[0].Overlaps(holds[1]), "distinct boxes are not serialised")
}
