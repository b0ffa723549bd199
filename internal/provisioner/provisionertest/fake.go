// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package provisionertest provides an in-memory Provisioner for tests.
package provisionertest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/matt-FFFFFF/autobox/internal/provisioner"
	"github.com/spf13/afero"
)

var _ provisioner.Provisioner = (*Fake)(nil)

// Call records one invocation.
type Call struct {
	Verb     provisioner.Verb
	Provider string
	Box      string
	Start    time.Time
	End      time.Time
}

// Outcome scripts the behaviour of one verb for one box.
type Outcome struct {
	ExitCode   int
	Err        error
	SkipExport bool          // For export: exit as scripted but do not write the box file.
	Delay      time.Duration // Time the fake process "runs".
	Output     string
}

// Fake writes `<box>.box` into FS under BoxDir on successful export, like the real tool.
// Unscripted calls succeed immediately.
type Fake struct {
	FS       afero.Fs
	BoxDir   string
	Outcomes map[string]Outcome // Keyed by Key(verb, provider, box).
	Default  Outcome            // Used when no outcome is scripted.

	mu    sync.Mutex
	calls []Call
}

// Key builds the Outcomes map key.
func Key(verb provisioner.Verb, provider, box string) string {
	return fmt.Sprintf("%s/%s/%s", verb, provider, box)
}

// Run implements provisioner.Provisioner.
func (f *Fake) Run(_ context.Context, verb provisioner.Verb, provider, box string, sink io.Writer) (int, error) {
	start := time.Now()

	f.mu.Lock()
	o, ok := f.Outcomes[Key(verb, provider, box)]
	f.mu.Unlock()

	if !ok {
		o = f.Default
	}

	out := o.Output
	if out == "" {
		out = fmt.Sprintf("%s %s %s\n", provider, verb, box)
	}

	_, _ = io.WriteString(sink, out)

	time.Sleep(o.Delay)

	if verb == provisioner.VerbExport && o.ExitCode == 0 && o.Err == nil && !o.SkipExport && f.FS != nil {
		if err := afero.WriteFile(f.FS, filepath.Join(f.BoxDir, box+".box"), []byte(provider+" image"), 0o644); err != nil {
			return -1, err //nolint:wrapcheck
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Verb: verb, Provider: provider, Box: box, Start: start, End: time.Now()})
	f.mu.Unlock()

	return o.ExitCode, o.Err
}

// Calls returns a copy of the recorded calls in completion order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Call, len(f.calls))
	copy(out, f.calls)

	return out
}

// CallsFor returns the recorded calls matching verb, provider and box.
func (f *Fake) CallsFor(verb provisioner.Verb, provider, box string) []Call {
	var out []Call

	for _, c := range f.Calls() {
		if c.Verb == verb && c.Provider == provider && c.Box == box {
			out = append(out, c)
		}
	}

	return out
}
