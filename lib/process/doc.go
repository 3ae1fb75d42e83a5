// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for the kernel binaries.
//
// [Fatal] reports an error from run() on stderr and exits 1. It is for
// failures that happen before the structured logger exists (bad flags,
// unreadable connection file) or that must end the process after it
// (a recovered loop panic). Everything else logs through slog.
package process
