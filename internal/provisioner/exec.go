// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package provisioner

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
)

// ExitCodeNotStarted is returned alongside an error when the process never ran.
const ExitCodeNotStarted = -1

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrNilSink is returned when no output sink is supplied.
	ErrNilSink = errors.New("output sink is nil")
)

// Command is one external process invocation.
type Command struct {
	Path string   // Executable to run, absolute or relative to the current directory.
	Args []string // Arguments, not including the executable name.
	Cwd  string   // Working directory, empty for the current directory.
}

// Run starts c, writes its combined stdout and stderr to sink and blocks until it exits.
// If sink is an *os.File the child writes to it directly, so partial output survives
// a hung or killed process. The context is used for logging only: a running process
// is never cancelled.
func Run(ctx context.Context, c Command, sink io.Writer) (int, error) {
	if sink == nil {
		return ExitCodeNotStarted, ErrNilSink
	}

	logger := ctxlog.Logger(ctx).With("path", c.Path, "args", c.Args, "cwd", c.Cwd)

	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec,noctx
	cmd.Dir = c.Cwd
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Start(); err != nil {
		logger.Debug("process failed to start", "error", err)
		return ExitCodeNotStarted, errors.Join(ErrCouldNotStartProcess, err)
	}

	start := time.Now()

	logger.Debug("process started", "pid", cmd.Process.Pid)

	err := cmd.Wait()
	code := cmd.ProcessState.ExitCode()

	logger.Debug("process finished", "exitCode", code, "elapsed", time.Since(start).Round(time.Millisecond))

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Copying output to a non-file sink failed; the exit code is still meaningful.
		return code, err //nolint:wrapcheck
	}

	return code, nil
}
