// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tailwriter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Lines(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		input   string
		want    []string
		dropped int
	}{
		{name: "empty", max: 3, input: "", want: []string{}},
		{name: "partial only", max: 3, input: "abc", want: []string{"abc"}},
		{name: "complete lines", max: 3, input: "a\nb\n", want: []string{"a", "b"}},
		{name: "evicts oldest", max: 2, input: "a\nb\nc\nd\n", want: []string{"c", "d"}, dropped: 2},
		{name: "partial kept after full", max: 2, input: "a\nb\nc", want: []string{"a", "b", "c"}},
		{name: "zero max means one", max: 0, input: "a\nb\n", want: []string{"b"}, dropped: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tt.max)

			n, err := io.WriteString(w, tt.input)
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.want, w.Lines())
			assert.Equal(t, tt.dropped, w.Dropped())
		})
	}
}

func TestWriter_ChunkedWrites(t *testing.T) {
	w := New(5)
	input := "first line\nsecond line\nthird"

	for i := 0; i < len(input); i += 4 {
		end := min(i+4, len(input))
		_, err := w.Write([]byte(input[i:end]))
		require.NoError(t, err)
	}

	assert.Equal(t, "first line\nsecond line\nthird", w.String())
}

func TestWriter_Concurrent(t *testing.T) {
	w := New(1000)

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 50 {
				_, _ = fmt.Fprintf(w, "%d-%d\n", i, j)
			}
		}()
	}

	wg.Wait()

	lines := w.Lines()
	assert.Len(t, lines, 500)

	for _, l := range lines {
		assert.True(t, strings.Contains(l, "-"), l)
	}
}

func TestWriter_CarriageReturn(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "progress rewinds", input: "start\n10%\r50%\r100%\r", want: []string{"start", "100%"}},
		{name: "crlf ends a line", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "overwrite then newline", input: "10%\rdone\n", want: []string{"done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(5)
			_, err := io.WriteString(w, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Lines())
		})
	}
}

func TestWriter_CrlfSplitAcrossWrites(t *testing.T) {
	w := New(5)

	for _, chunk := range []string{"a\r", "\nb\r", "\n"} {
		_, err := io.WriteString(w, chunk)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b"}, w.Lines())
}

func TestWriter_BoundedMemory(t *testing.T) {
	w := New(2)

	for range 100_000 {
		_, err := io.WriteString(w, "progress 50%\r")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"progress 50%"}, w.Lines())

	_, err := io.WriteString(w, "\n"+strings.Repeat("x", 3*MaxPartialBytes))
	require.NoError(t, err)

	lines := w.Lines()
	require.Len(t, lines, 2)
	assert.Len(t, lines[1], MaxPartialBytes)
	assert.LessOrEqual(t, cap(w.partial), 4*MaxPartialBytes)
}
