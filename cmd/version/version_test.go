// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package version

import (
	"bytes"
	"context"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestVersionCmd(t *testing.T) {
	stubs := gostub.Stub(&Version, "1.2.3").Stub(&Commit, "abc123")
	defer stubs.Reset()

	var buf bytes.Buffer

	root := &cli.Command{Name: "autobox", Writer: &buf, Commands: []*cli.Command{VersionCmd}}
	require.NoError(t, root.Run(context.Background(), []string{"autobox", "version"}))
	assert.Equal(t, "autobox 1.2.3 (commit: abc123)\n", buf.String())
}
