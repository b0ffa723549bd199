// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config resolves the settings for a build run.
//
// Values come from built-in defaults, then an optional YAML file, then
// command line flags. Validate reports every problem at once.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// Defaults.
const (
	DefaultJobCount    = 2
	DefaultProvider    = "vbox"
	DefaultLogDir      = "/tmp"
	DefaultBoxDir      = "."
	DefaultProvisioner = "veewee"
	DefaultPace        = 50 * time.Second
	DatestampLayout    = "20060102"
)

var (
	// ErrReadFile is returned when the config file cannot be read.
	ErrReadFile = errors.New("failed to read config file")
	// ErrInvalidYaml is returned when the config file is not valid YAML for a Config.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FsFactory returns the filesystem used to read config files and check directories.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Now returns the current time; used for the default datestamp.
var Now = time.Now

// Config is the resolved configuration for one run.
type Config struct {
	JobCount       int           `yaml:"job_count"`
	Providers      []string      `yaml:"providers"`
	DefinitionsDir string        `yaml:"definitions_dir"`
	Datestamp      string        `yaml:"datestamp"`
	LogDir         string        `yaml:"log_dir"`
	BoxDir         string        `yaml:"box_dir"`
	Pace           time.Duration `yaml:"-"`
	PaceText       string        `yaml:"pace"`
	Provisioner    string        `yaml:"provisioner"`
	Exclude        []string      `yaml:"exclude"`
	MetricsFile    string        `yaml:"metrics_file"`
	FailOnError    bool          `yaml:"fail_on_error"`
	Boxes          []string      `yaml:"-"` // Resolved by discovery.
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		JobCount:    DefaultJobCount,
		Providers:   []string{DefaultProvider},
		Datestamp:   Now().Format(DatestampLayout),
		LogDir:      DefaultLogDir,
		BoxDir:      DefaultBoxDir,
		Pace:        DefaultPace,
		Provisioner: DefaultProvisioner,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file keep their values.
func (c *Config) LoadFile(path string) error {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return errors.Join(ErrReadFile, err)
	}

	return c.LoadYAML(data)
}

// LoadYAML overlays YAML data onto c.
func (c *Config) LoadYAML(data []byte) error {
	c.PaceText = ""

	if err := yaml.UnmarshalWithOptions(data, c, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYaml, err) //nolint:errorlint
	}

	if c.PaceText != "" {
		d, err := time.ParseDuration(c.PaceText)
		if err != nil {
			return fmt.Errorf("%w: pace: %w", ErrInvalidYaml, err)
		}

		c.Pace = d
	}

	return nil
}

// DefaultDefinitionsDir is where box definitions live relative to a box directory.
func DefaultDefinitionsDir(boxDir string) string {
	return filepath.Join(boxDir, "..", "ss-veewee", "definitions")
}

// Normalize trims provider names, drops empty entries produced by trailing commas
// and fills DefinitionsDir from BoxDir when it is unset.
func (c *Config) Normalize() {
	if c.DefinitionsDir == "" {
		c.DefinitionsDir = DefaultDefinitionsDir(c.BoxDir)
	}

	providers := make([]string, 0, len(c.Providers))

	for _, p := range c.Providers {
		if p = strings.TrimSpace(p); p != "" {
			providers = append(providers, p)
		}
	}

	c.Providers = providers
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.JobCount < 1 {
		result = multierror.Append(result, fmt.Errorf("job count must be at least 1, got %d", c.JobCount))
	}

	if len(c.Providers) == 0 {
		result = multierror.Append(result, errors.New("at least one provider is required"))
	}

	seen := make(map[string]struct{}, len(c.Providers))

	for _, p := range c.Providers {
		if _, dup := seen[p]; dup {
			result = multierror.Append(result, fmt.Errorf("provider %q given more than once", p))
		}

		seen[p] = struct{}{}
	}

	if strings.TrimSpace(c.Datestamp) == "" {
		result = multierror.Append(result, errors.New("datestamp must not be empty"))
	}

	if c.Pace < 0 {
		result = multierror.Append(result, fmt.Errorf("pace must not be negative, got %s", c.Pace))
	}

	if c.Provisioner == "" {
		result = multierror.Append(result, errors.New("provisioner must not be empty"))
	}

	fs := FsFactory()

	for _, d := range []struct{ name, path string }{
		{"definitions dir", c.DefinitionsDir},
		{"log dir", c.LogDir},
		{"box dir", c.BoxDir},
	} {
		if err := requireDir(fs, d.path); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", d.name, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

func requireDir(fs afero.Fs, path string) error {
	if path == "" {
		return errors.New("not set")
	}

	ok, err := afero.IsDir(fs, path)
	if err != nil {
		return fmt.Errorf("missing or not a directory: %s", path) //nolint:err113
	}

	if !ok {
		return fmt.Errorf("not a directory: %s", path) //nolint:err113
	}

	return nil
}
