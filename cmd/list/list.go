// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package list implements the list command, a dry run of box discovery.
package list

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/autobox/cmd/cmdconfig"
	"github.com/matt-FFFFFF/autobox/internal/discovery"
	"github.com/urfave/cli/v3"
)

// NewCommand returns the list command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "Print the boxes a build with the same arguments would use",
		ArgsUsage: "[BOX_REGEX...]",
		Flags:     cmdconfig.DiscoveryFlags(),
		Action:    actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := cmdconfig.Resolve(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	patterns := cmd.Args().Slice()
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	boxes, err := discovery.Find(ctx, cfg.DefinitionsDir, patterns, cfg.Exclude)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, b := range boxes {
		if _, err := fmt.Fprintln(cmd.Root().Writer, b); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
