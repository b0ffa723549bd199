// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics records build run statistics and writes them in the
// Prometheus text format, suitable for the node_exporter textfile collector.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "autobox"

var (
	// ErrSetup is returned when the meter provider or instruments cannot be created.
	ErrSetup = errors.New("failed to set up metrics")
	// ErrWrite is returned when the textfile cannot be written.
	ErrWrite = errors.New("failed to write metrics file")
)

// Recorder holds the run's instruments.
type Recorder struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	jobs            metric.Int64Counter
	jobDuration     metric.Float64Histogram
	cleanupFailures metric.Int64Counter
}

// New creates a Recorder backed by a private Prometheus registry.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)
	r := &Recorder{registry: reg, provider: provider}

	r.jobs, err = meter.Int64Counter(
		"autobox_jobs",
		metric.WithDescription("Jobs completed, by provider, box and outcome"),
	)
	if err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	r.jobDuration, err = meter.Float64Histogram(
		"autobox_job_duration",
		metric.WithDescription("Wall time of the build pipeline per job"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(60, 300, 600, 900, 1800, 3600, 7200, 14400),
	)
	if err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	r.cleanupFailures, err = meter.Int64Counter(
		"autobox_cleanup_failures",
		metric.WithDescription("Destroy commands that failed after a job"),
	)
	if err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	return r, nil
}

// RecordJob counts res and observes its duration.
func (r *Recorder) RecordJob(ctx context.Context, res job.Result) {
	if r == nil {
		return
	}

	r.jobs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", res.Provider),
		attribute.String("box", res.Box),
		attribute.String("outcome", res.Outcome()),
	))
	r.jobDuration.Record(ctx, res.Duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", res.Provider),
	))
}

// RecordCleanupFailure counts a failed destroy.
func (r *Recorder) RecordCleanupFailure(ctx context.Context, provider string) {
	if r == nil {
		return
	}

	r.cleanupFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}

	return r.provider.Shutdown(ctx) //nolint:wrapcheck
}
