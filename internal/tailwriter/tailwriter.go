// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tailwriter provides an io.Writer that keeps only the last lines written to it.
// It is used to capture command output for warnings without holding unbounded output in memory.
package tailwriter

import (
	"bytes"
	"strings"
	"sync"
)

// MaxPartialBytes bounds the unterminated line kept between writes. Older bytes are discarded.
const MaxPartialBytes = 4096

// Writer retains the last N complete lines plus any trailing partial line.
// A carriage return not followed by a newline rewinds the partial line, as a
// terminal would, so progress output occupies a single line.
// It is safe for concurrent use.
type Writer struct {
	max     int
	lines   []string
	partial []byte
	cr      bool // The partial line was followed by a carriage return.
	dropped int
	mu      sync.Mutex
}

// New returns a Writer keeping at most maxLines lines. maxLines < 1 is treated as 1.
func New(maxLines int) *Writer {
	if maxLines < 1 {
		maxLines = 1
	}

	return &Writer{max: maxLines}
}

// Write implements io.Writer. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rest := p

	for len(rest) > 0 {
		i := bytes.IndexAny(rest, "\r\n")
		if i < 0 {
			w.appendPartial(rest)
			break
		}

		w.appendPartial(rest[:i])

		if rest[i] == '\n' {
			w.cr = false
			w.push(string(w.partial))
			w.partial = w.partial[:0]
		} else {
			w.cr = true
		}

		rest = rest[i+1:]
	}

	return len(p), nil
}

// appendPartial adds b to the unterminated line, keeping at most MaxPartialBytes.
// Must be called with the lock held.
func (w *Writer) appendPartial(b []byte) {
	if len(b) == 0 {
		return
	}

	if w.cr {
		w.partial = w.partial[:0]
		w.cr = false
	}

	w.partial = append(w.partial, b...)

	if over := len(w.partial) - MaxPartialBytes; over > 0 {
		n := copy(w.partial, w.partial[over:])
		w.partial = w.partial[:n]
	}
}

// push appends a complete line, evicting the oldest when full.
// Must be called with the lock held.
func (w *Writer) push(line string) {
	if len(w.lines) == w.max {
		w.lines = w.lines[1:]
		w.dropped++
	}

	w.lines = append(w.lines, line)
}

// Lines returns a copy of the retained lines, including a trailing partial line.
func (w *Writer) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.lines)+1)
	out = append(out, w.lines...)

	if len(w.partial) > 0 {
		out = append(out, string(w.partial))
	}

	return out
}

// Dropped returns how many complete lines were evicted.
func (w *Writer) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.dropped
}

// String returns the retained output joined by newlines.
func (w *Writer) String() string {
	return strings.Join(w.Lines(), "\n")
}
