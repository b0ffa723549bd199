// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package worker runs the build pipeline for a single job:
// pre-clean, build, stale file removal, locked export and archive promotion.
package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/matt-FFFFFF/autobox/internal/artifact"
	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/matt-FFFFFF/autobox/internal/exportlock"
	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/matt-FFFFFF/autobox/internal/provisioner"
)

// Worker builds and exports boxes. A single Worker is shared by every pool goroutine.
type Worker struct {
	Provisioner provisioner.Provisioner
	Locks       exportlock.Locker
	Layout      artifact.Layout
}

// Build runs j through the pipeline and always returns a Result; failures are values, not errors.
func (w *Worker) Build(ctx context.Context, j job.Job) job.Result {
	ctx = ctxlog.With(ctx, "provider", j.Provider, "box", j.Box)
	start := time.Now()

	res := w.build(ctx, j)
	res.Provider = j.Provider
	res.Box = j.Box
	res.Duration = time.Since(start)

	ctxlog.Info(ctx, "job finished",
		"phase", res.Phase, "exitCode", res.ExitCode, "elapsed", res.Duration.Round(time.Second))

	return res
}

func (w *Worker) build(ctx context.Context, j job.Job) job.Result {
	buildLog, buildLogPath, err := w.Layout.CreateLog(j, job.PhaseBuild)
	if err != nil {
		return job.Result{ExitCode: job.ExitCodeLaunchFailure, Phase: job.PhaseBuild, Err: err}
	}
	defer buildLog.Close() //nolint:errcheck

	w.preClean(ctx, j, buildLog)

	code, err := w.run(ctx, provisioner.VerbBuild, j, buildLog)
	if err != nil || code != 0 {
		return job.Result{ExitCode: code, Diagnostic: buildLogPath, Phase: job.PhaseBuild, Err: err}
	}

	return w.export(ctx, j)
}

// preClean halts and destroys any VM left over from an aborted run. Failures are logged and ignored.
func (w *Worker) preClean(ctx context.Context, j job.Job, sink io.Writer) {
	for _, verb := range []provisioner.Verb{provisioner.VerbHalt, provisioner.VerbDestroy} {
		code, err := w.run(ctx, verb, j, sink)
		if err != nil || code != 0 {
			ctxlog.Debug(ctx, "pre-clean step failed, continuing", "verb", verb, "exitCode", code, "error", err)
		}
	}
}

// export runs the export while holding the box's lock and promotes the result.
// Stale files are cleared under the lock: the export path is shared by every provider of the box.
func (w *Worker) export(ctx context.Context, j job.Job) job.Result {
	unlock, err := w.Locks.Lock(ctx, j.Box)
	if err != nil {
		ctxlog.Error(ctx, "export lock unavailable", "error", err)
		return job.Result{ExitCode: job.ExitCodeLaunchFailure, Phase: job.PhaseExport, Err: err}
	}
	defer unlock()

	if err := w.Layout.ClearStale(j); err != nil {
		return job.Result{ExitCode: job.ExitCodeLaunchFailure, Phase: job.PhaseExport, Err: err}
	}

	exportLog, exportLogPath, err := w.Layout.CreateLog(j, job.PhaseExport)
	if err != nil {
		return job.Result{ExitCode: job.ExitCodeLaunchFailure, Phase: job.PhaseExport, Err: err}
	}
	defer exportLog.Close() //nolint:errcheck

	failed := job.Result{Diagnostic: exportLogPath, Phase: job.PhaseExport}

	code, err := w.run(ctx, provisioner.VerbExport, j, exportLog)
	if err != nil || code != 0 {
		failed.ExitCode, failed.Err = code, err
		return failed
	}

	has, err := w.Layout.HasExport(j.Box)
	if err != nil || !has {
		ctxlog.Warn(ctx, "export succeeded but produced no box file", "expected", w.Layout.ExportPath(j.Box))
		failed.ExitCode, failed.Err = job.ExitCodeMissingArtifact, err

		return failed
	}

	dst, err := w.Layout.Promote(j)
	if err != nil {
		failed.ExitCode, failed.Err = job.ExitCodeLaunchFailure, err
		return failed
	}

	ctxlog.Debug(ctx, "box archived", "path", dst)

	return job.Result{Phase: job.PhaseExport}
}

func (w *Worker) run(ctx context.Context, verb provisioner.Verb, j job.Job, sink io.Writer) (int, error) {
	ctxlog.Info(ctx, "running provisioner", "verb", verb)

	code, err := w.Provisioner.Run(ctx, verb, j.Provider, j.Box, sink)
	if errors.Is(err, provisioner.ErrCouldNotStartProcess) {
		ctxlog.Error(ctx, "provisioner could not be started", "verb", verb, "error", err)
	}

	return code, err
}
