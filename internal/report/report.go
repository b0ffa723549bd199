// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report consumes job results as they complete, prints one status line
// per job and destroys the job's VM whatever the outcome.
//
// Destroys run one at a time on the consuming goroutine. A failed destroy is a
// warning only: it is printed with the tail of its output and never changes
// the run's result.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/autobox/internal/color"
	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/matt-FFFFFF/autobox/internal/exportlock"
	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/matt-FFFFFF/autobox/internal/metrics"
	"github.com/matt-FFFFFF/autobox/internal/provisioner"
	"github.com/matt-FFFFFF/autobox/internal/tailwriter"
)

// DefaultTailLines is how much destroy output is kept for a warning.
const DefaultTailLines = 50

// Reporter prints results and drives cleanup.
type Reporter struct {
	Out         io.Writer
	Provisioner provisioner.Provisioner
	Metrics     *metrics.Recorder // Optional.
	TailLines   int               // Destroy output lines kept for warnings; 0 means DefaultTailLines.
}

// Summary totals a drained run.
type Summary struct {
	Total           int
	Succeeded       int
	Failed          int
	CleanupFailures int
	Fatal           error // Configuration faults found while running, such as an unregistered box.
}

// HasFailures reports whether any job failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d boxes built: %d succeeded, %d failed, %d cleanup warnings",
		s.Succeeded, s.Total, s.Succeeded, s.Failed, s.CleanupFailures)
}

// Drain consumes results until the channel is closed.
func (r *Reporter) Drain(ctx context.Context, results <-chan job.Result) Summary {
	var s Summary

	for res := range results {
		s.Total++

		if res.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}

		if errors.Is(res.Err, exportlock.ErrUnregisteredBox) {
			s.Fatal = errors.Join(s.Fatal, res.Err)
		}

		r.printResult(res)
		r.Metrics.RecordJob(ctx, res)

		if !r.destroy(ctx, res.Provider, res.Box) {
			s.CleanupFailures++
			r.Metrics.RecordCleanupFailure(ctx, res.Provider)
		}
	}

	return s
}

func (r *Reporter) printResult(res job.Result) {
	if res.Succeeded() {
		r.printf("%s built %s for %s\n", color.Colorize("SUCCESS", color.FgGreen), res.Box, res.Provider)
		return
	}

	r.printf("%s building %s for %s (%s)\n",
		color.Colorize("FAILURE", color.FgRed), res.Box, res.Provider, describeFailure(res))
}

func describeFailure(res job.Result) string {
	parts := []string{fmt.Sprintf("%s exit %d", res.Phase, res.ExitCode)}

	if res.ExitCode == job.ExitCodeMissingArtifact && res.Err == nil {
		parts = append(parts, "export reported success but no box file was produced")
	}

	if res.Err != nil {
		parts = append(parts, strings.ReplaceAll(res.Err.Error(), "\n", ": "))
	}

	if res.Diagnostic != "" {
		parts = append(parts, "see "+res.Diagnostic)
	}

	return strings.Join(parts, "; ")
}

// destroy issues the cleanup command and reports whether it succeeded.
func (r *Reporter) destroy(ctx context.Context, provider, box string) bool {
	tail := tailwriter.New(r.tailLines())

	code, err := r.Provisioner.Run(ctx, provisioner.VerbDestroy, provider, box, tail)
	if err == nil && code == 0 {
		return true
	}

	ctxlog.Debug(ctx, "destroy failed", "provider", provider, "box", box, "exitCode", code, "error", err)

	r.printf("%s failed to destroy %s %s (exit %d)", color.Colorize("WARNING", color.FgYellow), provider, box, code)

	if err != nil {
		r.printf(": %v", err)
	}

	r.printf("\nOUTPUT:\n\n%s\n", tail.String())

	return false
}

func (r *Reporter) tailLines() int {
	if r.TailLines > 0 {
		return r.TailLines
	}

	return DefaultTailLines
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}
