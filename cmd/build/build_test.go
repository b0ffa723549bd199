// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package build

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/autobox/internal/config"
	"github.com/matt-FFFFFF/autobox/internal/discovery"
	"github.com/matt-FFFFFF/autobox/internal/provisioner"
	"github.com/matt-FFFFFF/autobox/internal/provisioner/provisionertest"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

type harness struct {
	fs   afero.Fs
	fake *provisionertest.Fake
}

func newHarness(t *testing.T, boxes ...string) *harness {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, d := range []string{"/boxes", "/logs"} {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}

	for _, b := range boxes {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/defs", b, discovery.DefinitionFile), nil, 0o644))
	}

	fake := &provisionertest.Fake{FS: fs, BoxDir: "/boxes", Outcomes: map[string]provisionertest.Outcome{}}

	stubs := gostub.Stub(&config.FsFactory, func() afero.Fs { return fs }).
		Stub(&discovery.FsFactory, func() afero.Fs { return fs }).
		Stub(&lookPath, func(string) (string, error) { return "/usr/local/bin/veewee", nil }).
		Stub(&newProvisioner, func(string, string) provisioner.Provisioner { return fake })
	t.Cleanup(stubs.Reset)

	return &harness{fs: fs, fake: fake}
}

// runCLI executes the build command and returns its stdout and the exit code it asked for.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()

	var buf bytes.Buffer

	exitCode := 0
	cmd := NewCommand()
	cmd.Writer = &buf
	cmd.ErrWriter = io.Discard
	cmd.ExitErrHandler = func(_ context.Context, _ *cli.Command, err error) {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			exitCode = ec.ExitCode()
		}
	}

	base := []string{
		"build",
		"--definitions-dir", "/defs",
		"--box-dir", "/boxes",
		"--log-dir", "/logs",
		"--pace", "0s",
		"--datestamp", "20240101",
	}

	err := cmd.Run(context.Background(), append(base, args...))
	if err != nil && exitCode == 0 {
		exitCode = 1
	}

	return buf.String(), exitCode
}

func TestBuild_AllSucceed(t *testing.T) {
	h := newHarness(t, "ubuntu-22.04", "centos-7", "debian-12")

	out, code := runCLI(t, "-j", "2", "-p", "vbox,fusion", "ubuntu", "centos")
	require.Equal(t, 0, code, out)

	assert.Contains(t, out, "Building [centos-7 ubuntu-22.04] for [vbox fusion] in 2 workers...")
	assert.Contains(t, out, "SUCCESS built centos-7 for vbox")
	assert.Contains(t, out, "SUCCESS built ubuntu-22.04 for fusion")
	assert.Contains(t, out, "4/4 boxes built: 4 succeeded, 0 failed, 0 cleanup warnings")
	assert.NotContains(t, out, "debian-12")

	for _, p := range []string{
		"/boxes/centos-7-20240101.box",
		"/boxes/centos-7-vmware-20240101.box",
		"/boxes/ubuntu-22.04-20240101.box",
		"/boxes/ubuntu-22.04-vmware-20240101.box",
		"/logs/auto_build.centos-7.vbox.20240101.build.log",
		"/logs/auto_build.ubuntu-22.04.fusion.20240101.export.log",
	} {
		ok, err := afero.Exists(h.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}

	// One cleanup destroy per job plus one pre-clean destroy per job.
	assert.Len(t, h.fake.CallsFor(provisioner.VerbDestroy, "vbox", "centos-7"), 2)
}

func TestBuild_FailureExitPolicy(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "failures are reported but exit zero by default", wantCode: 0},
		{name: "fail-on-error", args: []string{"--fail-on-error"}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "ubuntu-22.04", "centos-7")
			h.fake.Outcomes[provisionertest.Key(provisioner.VerbBuild, "vbox", "centos-7")] = provisionertest.Outcome{ExitCode: 3}

			out, code := runCLI(t, append(tt.args, ".")...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, "FAILURE building centos-7 for vbox (build exit 3; see /logs/auto_build.centos-7.vbox.20240101.build.log)")
			assert.Contains(t, out, "SUCCESS built ubuntu-22.04 for vbox")
			assert.Contains(t, out, "1/2 boxes built: 1 succeeded, 1 failed, 0 cleanup warnings")
		})
	}
}

func TestBuild_MissingArtifact(t *testing.T) {
	h := newHarness(t, "centos-7")
	h.fake.Outcomes[provisionertest.Key(provisioner.VerbExport, "vbox", "centos-7")] = provisionertest.Outcome{SkipExport: true}

	out, code := runCLI(t, "centos")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "FAILURE building centos-7 for vbox (export exit 42; export reported success but no box file was produced")
}

func TestBuild_CleanupWarning(t *testing.T) {
	h := newHarness(t, "centos-7")
	h.fake.Outcomes[provisionertest.Key(provisioner.VerbDestroy, "vbox", "centos-7")] = provisionertest.Outcome{
		ExitCode: 1,
		Output:   "VM is locked\n",
	}

	out, code := runCLI(t, "centos")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "SUCCESS built centos-7 for vbox")
	assert.Contains(t, out, "WARNING failed to destroy vbox centos-7 (exit 1)\nOUTPUT:\n\nVM is locked")
	assert.Contains(t, out, "1 cleanup warnings")
}

func TestBuild_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no patterns"},
		{name: "nothing matches", args: []string{"windows"}},
		{name: "bad regex", args: []string{"("}},
		{name: "zero jobs", args: []string{"-j", "0", "centos"}},
		{name: "missing config file", args: []string{"--config", "/nope.yaml", "centos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "centos-7")

			_, code := runCLI(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, h.fake.Calls(), "no provisioner command may run")
		})
	}
}

func TestBuild_ProvisionerNotFound(t *testing.T) {
	h := newHarness(t, "centos-7")

	stubs := gostub.Stub(&lookPath, func(string) (string, error) { return "", provisioner.ErrNotFound })
	defer stubs.Reset()

	_, code := runCLI(t, "centos")
	assert.Equal(t, 1, code)
	assert.Empty(t, h.fake.Calls())
}

func TestBuild_ConfigFile(t *testing.T) {
	h := newHarness(t, "centos-7", "centos-7-minimal")
	require.NoError(t, afero.WriteFile(h.fs, "/etc/autobox.yaml", []byte(`
providers: [fusion]
exclude: ["*-minimal"]
`), 0o644))

	out, code := runCLI(t, "--config", "/etc/autobox.yaml", "centos")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Building [centos-7] for [fusion] in 2 workers...")
	assert.Empty(t, h.fake.CallsFor(provisioner.VerbBuild, "vbox", "centos-7"))
	assert.Len(t, h.fake.CallsFor(provisioner.VerbBuild, "fusion", "centos-7"), 1)
}

func TestBuild_MetricsFile(t *testing.T) {
	newHarness(t, "centos-7")

	path := filepath.Join(t.TempDir(), "autobox.prom")

	out, code := runCLI(t, "--metrics-file", path, "centos")
	require.Equal(t, 0, code, out)

	data, err := afero.ReadFile(afero.NewOsFs(), path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `autobox_jobs_total{`)
	assert.Contains(t, string(data), `outcome="success"`)
}
