// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for the kernel loop and message headers.
// Production code uses Real(); tests use Fake() and drive time with
// Advance.
type Clock interface {
	// Now returns the current time. Header dates and execution start
	// times come from here.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. If
	// d <= 0 the channel is ready immediately. The server loop waits
	// on it between polling passes.
	After(d time.Duration) <-chan time.Time
}
