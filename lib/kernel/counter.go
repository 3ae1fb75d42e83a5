// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import "sync/atomic"

// ExecutionCounter numbers accepted execute requests. It is shared by
// every channel that dispatches executions: the first call to Next
// returns 1 and each later call returns one more, from any goroutine.
// The zero value is ready to use.
type ExecutionCounter struct {
	value atomic.Int64
}

// Next increments the counter and returns the new value.
func (c *ExecutionCounter) Next() int {
	return int(c.value.Add(1))
}

// Current returns the most recent value returned by Next, or 0.
func (c *ExecutionCounter) Current() int {
	return int(c.value.Load())
}
