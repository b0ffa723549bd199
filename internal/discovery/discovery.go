// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package discovery finds the box definitions to build.
//
// A box is a directory directly under the definitions directory that contains a
// definition.rb file. It is selected when any of the patterns matches part of
// its name and none of the exclude globs matches the whole name.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefinitionFile marks a directory as a box definition.
const DefinitionFile = "definition.rb"

var (
	// ErrNoPatterns is returned when no box patterns are given.
	ErrNoPatterns = errors.New("no box patterns given")
	// ErrBadPattern is returned when a box pattern is not a valid regular expression.
	ErrBadPattern = errors.New("invalid box pattern")
	// ErrBadExclude is returned when an exclude glob is malformed.
	ErrBadExclude = errors.New("invalid exclude glob")
	// ErrNoBoxesMatched is returned when nothing matches.
	ErrNoBoxesMatched = errors.New("no boxes matched")
	// ErrListDefinitions is returned when the definitions directory cannot be read.
	ErrListDefinitions = errors.New("failed to list box definitions")
)

// FsFactory returns the filesystem searched for definitions.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Find returns the sorted names of the boxes under dir selected by patterns and excludes.
func Find(ctx context.Context, dir string, patterns, excludes []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	regexes := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrBadPattern, p, err)
		}

		regexes = append(regexes, re)
	}

	for _, e := range excludes {
		if !doublestar.ValidatePattern(e) {
			return nil, fmt.Errorf("%w: %q", ErrBadExclude, e)
		}
	}

	all, err := List(ctx, dir)
	if err != nil {
		return nil, err
	}

	var boxes []string

	for _, name := range all {
		if matchesAny(regexes, name) && !excluded(excludes, name) {
			boxes = append(boxes, name)
		}
	}

	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoBoxesMatched, patterns)
	}

	return boxes, nil
}

// List returns the sorted names of every box definition under dir.
func List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	fs := FsFactory()

	matches, err := afero.Glob(fs, filepath.Join(dir, "*", DefinitionFile))
	if err != nil {
		return nil, errors.Join(ErrListDefinitions, err)
	}

	names := make([]string, 0, len(matches))

	for _, m := range matches {
		boxDir := filepath.Dir(m)

		if isDir, err := afero.IsDir(fs, boxDir); err != nil || !isDir {
			continue
		}

		names = append(names, filepath.Base(boxDir))
	}

	slices.Sort(names)

	return slices.Compact(names), nil
}

func matchesAny(regexes []*regexp.Regexp, name string) bool {
	for _, re := range regexes {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

func excluded(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}

	return false
}
