// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the kernel binaries.
//
// Four variables are injected with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/kernel/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] default to
// "unknown", "false", "unknown", and "0.1.0-dev" in development builds
// and tests.
package version
