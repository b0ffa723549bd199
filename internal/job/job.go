// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package job

import (
	"fmt"
	"time"
)

// ExitCodeMissingArtifact is reported when export exits 0 but leaves no box file behind.
const ExitCodeMissingArtifact = 42

// ExitCodeLaunchFailure is reported when the provisioner could not be started at all.
const ExitCodeLaunchFailure = -1

// Job identifies one box build for one provider.
type Job struct {
	Provider  string
	Box       string
	Datestamp string
}

// String implements fmt.Stringer.
func (j Job) String() string {
	return fmt.Sprintf("%s/%s@%s", j.Provider, j.Box, j.Datestamp)
}

// Phase names the pipeline step a Result finished in.
type Phase string

// Pipeline phases.
const (
	PhaseBuild  Phase = "build"
	PhaseExport Phase = "export"
)

// Result is the outcome of running one Job through the build pipeline.
type Result struct {
	Provider   string
	Box        string
	ExitCode   int           // Exit code of the failing step, 0 on success
	Diagnostic string        // Path of the log explaining a failure, empty on success
	Phase      Phase         // Phase the job finished in
	Err        error         // Launch or filesystem error, if any
	Duration   time.Duration // Wall time spent in the pipeline
}

// Succeeded reports whether the job produced its final archive.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Outcome classifies the result for reporting and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Succeeded():
		return "success"
	case r.ExitCode == ExitCodeLaunchFailure && r.Err != nil:
		return "launch_failed"
	case r.Phase == PhaseBuild:
		return "build_failed"
	case r.ExitCode == ExitCodeMissingArtifact:
		return "missing_artifact"
	default:
		return "export_failed"
	}
}
