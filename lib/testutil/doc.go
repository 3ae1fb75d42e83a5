// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the kernel's tests.
//
// [RequireReceive] wraps a channel receive in a wall-clock safety
// timeout so a broken server loop
// fails the test instead of hanging it. It is the only place tests
// touch real time; everything else goes through lib/clock.
//
// [SocketDir] returns a short temporary directory for ipc endpoints,
// whose paths must fit in sun_path. [UniqueID] produces distinct
// names for endpoints and sessions within one test binary.
//
// Helpers call t.Fatalf on failure.
package testutil
