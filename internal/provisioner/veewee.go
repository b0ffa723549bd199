// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package provisioner

import (
	"context"
	"io"
)

// Verb is one of the provisioning tool's box operations.
type Verb string

// Verbs understood by the provisioning tool.
const (
	VerbHalt    Verb = "halt"
	VerbDestroy Verb = "destroy"
	VerbBuild   Verb = "build"
	VerbExport  Verb = "export"
)

// Provisioner runs a verb against a box for a provider.
type Provisioner interface {
	Run(ctx context.Context, verb Verb, provider, box string, sink io.Writer) (int, error)
}

var _ Provisioner = (*Veewee)(nil)

// Veewee drives the veewee command line: `veewee <provider> <verb> <box> [--auto]`.
type Veewee struct {
	Path string // Resolved path of the veewee executable.
	Cwd  string // Directory veewee runs in; exported boxes land here.
}

// Args returns the argument list for verb.
func (v *Veewee) Args(verb Verb, provider, box string) []string {
	args := []string{provider, string(verb), box}
	if verb == VerbBuild {
		args = append(args, "--auto")
	}

	return args
}

// Run implements Provisioner.
func (v *Veewee) Run(ctx context.Context, verb Verb, provider, box string, sink io.Writer) (int, error) {
	c := Command{
		Path: v.Path,
		Args: v.Args(verb, provider, box),
		Cwd:  v.Cwd,
	}

	return Run(ctx, c, sink)
}
