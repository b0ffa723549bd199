// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package build implements the build command.
package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/autobox/cmd/cmdconfig"
	"github.com/matt-FFFFFF/autobox/internal/artifact"
	"github.com/matt-FFFFFF/autobox/internal/config"
	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/matt-FFFFFF/autobox/internal/discovery"
	"github.com/matt-FFFFFF/autobox/internal/exportlock"
	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/matt-FFFFFF/autobox/internal/metrics"
	"github.com/matt-FFFFFF/autobox/internal/pool"
	"github.com/matt-FFFFFF/autobox/internal/provisioner"
	"github.com/matt-FFFFFF/autobox/internal/report"
	"github.com/matt-FFFFFF/autobox/internal/worker"
	"github.com/urfave/cli/v3"
)

// ErrBuildsFailed is returned with --fail-on-error when at least one job failed.
var ErrBuildsFailed = errors.New("one or more builds failed")

var (
	lookPath = provisioner.LookPath

	newProvisioner = func(path, cwd string) provisioner.Provisioner {
		return &provisioner.Veewee{Path: path, Cwd: cwd}
	}
)

// NewCommand returns the build command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Build and export every box matching BOX_REGEX for each provider",
		ArgsUsage: "BOX_REGEX...",
		Description: `Each BOX_REGEX is matched anywhere in the name of a box definition directory.
Every matched box is built for every provider. Jobs start in provider-major order,
at most --job-count at a time, and at least --pace apart.`,
		Flags:  append(cmdconfig.BuildFlags(), cmdconfig.DiscoveryFlags()...),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	patterns := cmd.Args().Slice()
	if len(patterns) == 0 {
		return cli.Exit("Please provide at least one BOX_REGEX", 1)
	}

	cfg, err := cmdconfig.Resolve(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	boxes, err := discovery.Find(ctx, cfg.DefinitionsDir, patterns, cfg.Exclude)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg.Boxes = boxes

	path, err := lookPath(cfg.Provisioner)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx = ctxlog.With(ctx, "run", uuid.NewString())
	ctxlog.Debug(ctx, "resolved configuration",
		"provisioner", path, "boxDir", cfg.BoxDir, "logDir", cfg.LogDir, "pace", cfg.Pace)

	summary, err := run(ctx, cmd, cfg, newProvisioner(path, cfg.BoxDir))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if summary.HasFailures() && cfg.FailOnError {
		return cli.Exit(ErrBuildsFailed.Error(), 1)
	}

	return nil
}

func run(ctx context.Context, cmd *cli.Command, cfg *config.Config, prov provisioner.Provisioner) (report.Summary, error) {
	out := cmd.Root().Writer

	_, _ = fmt.Fprintf(out, "Building %v for %v in %d workers...\n", cfg.Boxes, cfg.Providers, cfg.JobCount)

	rec, err := metrics.New()
	if err != nil {
		ctxlog.Warn(ctx, "metrics disabled", "error", err)
	}

	defer func() {
		if err := rec.Shutdown(context.WithoutCancel(ctx)); err != nil {
			ctxlog.Debug(ctx, "metrics shutdown", "error", err)
		}
	}()

	p := &pool.Pool{
		Workers: cfg.JobCount,
		Builder: &worker.Worker{
			Provisioner: prov,
			Locks:       exportlock.New(cfg.Boxes),
			Layout:      artifact.Layout{FS: config.FsFactory(), BoxDir: cfg.BoxDir, LogDir: cfg.LogDir},
		},
		Buffer: job.Count(cfg.Providers, cfg.Boxes),
	}

	results := p.Run(ctx, job.Source(ctx, cfg.Providers, cfg.Boxes, cfg.Datestamp, cfg.Pace))

	reporter := &report.Reporter{Out: out, Provisioner: prov, Metrics: rec}
	summary := reporter.Drain(ctx, results)

	_, _ = fmt.Fprintln(out, summary.String())

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			ctxlog.Warn(ctx, "could not write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}

	if ctx.Err() != nil {
		ctxlog.Warn(ctx, "run interrupted before every job started", "error", ctx.Err())
	}

	return summary, summary.Fatal
}
