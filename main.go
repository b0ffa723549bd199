// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the autobox command-line application.
package main

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/autobox/cmd"
	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/matt-FFFFFF/autobox/internal/signalbroker"
)

// exitInterrupted is the conventional exit status after SIGINT.
const exitInterrupted = 130

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	sigCh := signalbroker.New(ctx)
	done := make(chan struct{})

	go signalbroker.Watch(ctx, sigCh, done, cancel, func() {
		os.Exit(exitInterrupted)
	})

	err := cmd.RootCmd.Run(ctx, os.Args) // Exit codes are handled by the cli framework.

	interrupted := ctx.Err() != nil

	close(done)
	signalbroker.Stop(sigCh)
	cancel()

	if interrupted {
		ctxlog.Logger(ctx).Warn("run interrupted", "error", err)
		os.Exit(exitInterrupted)
	}

	if err != nil {
		ctxlog.Logger(ctx).Debug("command failed", "error", err)
		os.Exit(1)
	}
}
