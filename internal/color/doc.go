// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI SGR codes.
// Colour is disabled when NO_COLOR is set, forced on by FORCE_COLOR, and
// otherwise enabled only when stdout is a terminal (golang.org/x/term).
package color
