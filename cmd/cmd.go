// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/autobox/cmd/build"
	"github.com/matt-FFFFFF/autobox/cmd/list"
	"github.com/matt-FFFFFF/autobox/cmd/version"
	"github.com/matt-FFFFFF/autobox/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// RootCmd is the root command for the CLI.
var RootCmd = NewRootCmd()

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			build.NewCommand(),
			list.NewCommand(),
			version.VersionCmd,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelFlag,
				Usage:   "Log level: debug, info, warn or error",
				Sources: cli.EnvVars(ctxlog.EnvName()),
			},
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Log format: pretty, text or json",
				Value: "pretty",
			},
		},
		Before:    configureLogging,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "autobox",
		Version:   version.String(),
		Description: `autobox builds and exports virtual machine boxes with veewee.
Each matching box definition is built for every requested provider, several at once,
and the exported box is archived next to the others with a datestamp in its name.`,
		Usage:     "autobox build -p vbox,fusion -j 4 'ubuntu-.*'",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
	}
}

func configureLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if lvl := cmd.String(logLevelFlag); lvl != "" {
		if err := ctxlog.SetLevel(lvl); err != nil {
			return ctx, cli.Exit(err.Error(), 1)
		}
	}

	logger, err := ctxlog.NewLogger(cmd.String(logFormatFlag), cmd.ErrWriter)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	return ctxlog.New(ctx, logger), nil
}
