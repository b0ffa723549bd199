// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package provisioner runs the external box provisioning tool.
//
// Each invocation is a single blocking subprocess whose stdout and stderr are
// merged into one sink as they are produced. A non-zero exit is reported as an
// exit code, never retried, and never turned into an error; errors are reserved
// for processes that could not be started.
package provisioner
