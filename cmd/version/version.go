// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package version holds the build metadata and the version command.
package version

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)

// String returns the version and commit in one line.
func String() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// VersionCmd prints the version.
var VersionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print the autobox version",
	Action: func(_ context.Context, cmd *cli.Command) error {
		_, err := fmt.Fprintf(cmd.Root().Writer, "autobox %s\n", String())

		return err //nolint:wrapcheck
	},
}
