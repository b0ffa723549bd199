// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package artifact owns the on-disk names a build run reads and writes:
// the intermediate export file, the dated archive and the per-job logs.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/autobox/internal/job"
	"github.com/spf13/afero"
)

const (
	boxExt      = ".box"
	logPrefix   = "auto_build"
	logFileMode = 0o644
)

// ProviderVariants maps providers to the marker inserted into their archive names.
var ProviderVariants = map[string]string{
	"fusion": "-vmware",
}

var (
	// ErrRemoveStale is returned when a leftover export or archive cannot be removed.
	ErrRemoveStale = errors.New("failed to remove stale box file")
	// ErrPromote is returned when the exported box cannot be renamed to its archive name.
	ErrPromote = errors.New("failed to rename exported box")
	// ErrCreateLog is returned when a log file cannot be opened.
	ErrCreateLog = errors.New("failed to create log file")
)

// Layout resolves artifact paths and performs the file operations around an export.
type Layout struct {
	FS     afero.Fs
	BoxDir string // Where the provisioning tool writes `<box>.box` and where archives live.
	LogDir string
}

// ExportPath is where the provisioning tool leaves an exported box. It depends on the box name only.
func (l Layout) ExportPath(box string) string {
	return filepath.Join(l.BoxDir, box+boxExt)
}

// ArchivePath is the dated final name for a box built for provider.
func (l Layout) ArchivePath(provider, box, datestamp string) string {
	return filepath.Join(l.BoxDir, fmt.Sprintf("%s%s-%s%s", box, ProviderVariants[provider], datestamp, boxExt))
}

// LogPath is the log file for one phase of j.
func (l Layout) LogPath(j job.Job, phase job.Phase) string {
	name := fmt.Sprintf("%s.%s.%s.%s.%s.log", logPrefix, j.Box, j.Provider, j.Datestamp, phase)
	return filepath.Join(l.LogDir, name)
}

// CreateLog opens the phase log for j, truncating any log from an earlier run.
func (l Layout) CreateLog(j job.Job, phase job.Phase) (afero.File, string, error) {
	path := l.LogPath(j, phase)

	f, err := l.FS.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, path, errors.Join(ErrCreateLog, err)
	}

	return f, path, nil
}

// ClearStale removes any export file for the box and any archive for j.
// Missing files are not an error.
func (l Layout) ClearStale(j job.Job) error {
	for _, p := range []string{l.ExportPath(j.Box), l.ArchivePath(j.Provider, j.Box, j.Datestamp)} {
		if err := l.removeIfExists(p); err != nil {
			return err
		}
	}

	return nil
}

func (l Layout) removeIfExists(path string) error {
	exists, err := afero.Exists(l.FS, path)
	if err != nil {
		return errors.Join(ErrRemoveStale, err)
	}

	if !exists {
		return nil
	}

	if err := l.FS.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrRemoveStale, err)
	}

	return nil
}

// HasExport reports whether the provisioning tool left an exported box behind.
func (l Layout) HasExport(box string) (bool, error) {
	return afero.Exists(l.FS, l.ExportPath(box)) //nolint:wrapcheck
}

// Promote renames the exported box to its archive name and returns that name.
func (l Layout) Promote(j job.Job) (string, error) {
	dst := l.ArchivePath(j.Provider, j.Box, j.Datestamp)

	if err := l.FS.Rename(l.ExportPath(j.Box), dst); err != nil {
		return "", errors.Join(ErrPromote, err)
	}

	return dst, nil
}
