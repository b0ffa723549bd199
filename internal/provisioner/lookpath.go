// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package provisioner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound is returned when the executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// LookPath finds command on PATH. Names containing a path separator are checked as given.
func LookPath(command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}

	if strings.ContainsRune(command, os.PathSeparator) {
		if isExecutable(command) {
			return command, nil
		}

		return "", fmt.Errorf("%w: %s", ErrNotFound, command)
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}

		candidate := filepath.Join(dir, command)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, command)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}
