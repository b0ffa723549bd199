// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger on a context.Context.
//
// The default logger writes to stderr with a pretty console handler. The level
// is read from the `<EXECUTABLE>_LOG_LEVEL` environment variable at start-up
// (for the autobox binary that is AUTOBOX_LOG_LEVEL) and can be changed later
// with SetLevel.
package ctxlog
