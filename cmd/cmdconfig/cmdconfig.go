// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdconfig holds the flags shared by the subcommands and resolves them into a config.Config.
package cmdconfig

import (
	"errors"

	"github.com/matt-FFFFFF/autobox/internal/config"
	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	ConfigFlag         = "config"
	JobCountFlag       = "job-count"
	ProvidersFlag      = "providers"
	DefinitionsDirFlag = "definitions-dir"
	DatestampFlag      = "datestamp"
	LogDirFlag         = "log-dir"
	BoxDirFlag         = "box-dir"
	PaceFlag           = "pace"
	ProvisionerFlag    = "provisioner"
	ExcludeFlag        = "exclude"
	MetricsFileFlag    = "metrics-file"
	FailOnErrorFlag    = "fail-on-error"
)

// ErrLoadConfig is returned when the --config file cannot be applied.
var ErrLoadConfig = errors.New("failed to load config file")

// DiscoveryFlags locate box definitions. Both build and list take them.
func DiscoveryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      ConfigFlag,
			Usage:     "YAML file with default settings; flags override it",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:        DefinitionsDirFlag,
			Aliases:     []string{"d"},
			Usage:       "Directory containing one sub-directory per box definition",
			DefaultText: "BOX_DIR/../ss-veewee/definitions",
			TakesFile:   true,
		},
		&cli.StringFlag{
			Name:      BoxDirFlag,
			Usage:     "Directory the provisioner runs in and exported boxes are written to",
			Value:     config.DefaultBoxDir,
			TakesFile: true,
		},
		&cli.StringSliceFlag{
			Name:  ExcludeFlag,
			Usage: "Glob of box names to skip; may be repeated",
		},
	}
}

// BuildFlags are the flags only the build command takes.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    JobCountFlag,
			Aliases: []string{"j"},
			Usage:   "Number of builds to run at once",
			Value:   config.DefaultJobCount,
		},
		&cli.StringSliceFlag{
			Name:    ProvidersFlag,
			Aliases: []string{"p"},
			Usage:   "Comma separated providers to build for",
			Value:   []string{config.DefaultProvider},
		},
		&cli.StringFlag{
			Name:        DatestampFlag,
			Aliases:     []string{"s"},
			Usage:       "Datestamp used in archive and log names",
			DefaultText: "today as YYYYMMDD",
		},
		&cli.StringFlag{
			Name:      LogDirFlag,
			Usage:     "Directory for per job log files",
			Value:     config.DefaultLogDir,
			TakesFile: true,
		},
		&cli.DurationFlag{
			Name:  PaceFlag,
			Usage: "Minimum gap between job starts; 0 disables pacing",
			Value: config.DefaultPace,
		},
		&cli.StringFlag{
			Name:  ProvisionerFlag,
			Usage: "Provisioner executable, resolved on PATH",
			Value: config.DefaultProvisioner,
		},
		&cli.StringFlag{
			Name:      MetricsFileFlag,
			Usage:     "Write Prometheus metrics for the run to this file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  FailOnErrorFlag,
			Usage: "Exit non-zero when any build fails",
		},
	}
}

// Resolve layers defaults, the optional config file and every flag the user set.
// The result is normalised but not validated.
func Resolve(cmd *cli.Command) (*config.Config, error) {
	c := config.Default()

	if path := cmd.String(ConfigFlag); path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
	}

	if cmd.IsSet(BoxDirFlag) {
		c.BoxDir = cmd.String(BoxDirFlag)
	}

	if cmd.IsSet(DefinitionsDirFlag) {
		c.DefinitionsDir = cmd.String(DefinitionsDirFlag)
	}

	if cmd.IsSet(ExcludeFlag) {
		c.Exclude = cmd.StringSlice(ExcludeFlag)
	}

	applyBuildFlags(cmd, c)
	c.Normalize()

	return c, nil
}

func applyBuildFlags(cmd *cli.Command, c *config.Config) {
	if cmd.IsSet(JobCountFlag) {
		c.JobCount = int(cmd.Int(JobCountFlag))
	}

	if cmd.IsSet(ProvidersFlag) {
		c.Providers = cmd.StringSlice(ProvidersFlag)
	}

	if cmd.IsSet(DatestampFlag) {
		c.Datestamp = cmd.String(DatestampFlag)
	}

	if cmd.IsSet(LogDirFlag) {
		c.LogDir = cmd.String(LogDirFlag)
	}

	if cmd.IsSet(PaceFlag) {
		c.Pace = cmd.Duration(PaceFlag)
	}

	if cmd.IsSet(ProvisionerFlag) {
		c.Provisioner = cmd.String(ProvisionerFlag)
	}

	if cmd.IsSet(MetricsFileFlag) {
		c.MetricsFile = cmd.String(MetricsFileFlag)
	}

	if cmd.IsSet(FailOnErrorFlag) {
		c.FailOnError = cmd.Bool(FailOnErrorFlag)
	}
}
