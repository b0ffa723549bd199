// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package job defines the unit of work for a build run and the paced source that produces it.
//
// A Job is one (provider, box, datestamp) triple. Every Job handed to the pool yields
// exactly one Result.
package job
