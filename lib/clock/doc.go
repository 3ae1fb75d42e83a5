// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps or waits accepts a Clock instead of calling
// time.Now or time.After. Real() is the time package;
// Fake() is a clock that moves only when the test says so:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	server := kernel.NewServer(kernel.ServerConfig{Clock: c, ...})
//	go server.Run(ctx)
//	c.WaitForTimers(1)        // the loop is sleeping between passes
//	c.Advance(pollInterval)   // wake it deterministically
//
// WaitForTimers removes the race between a goroutine registering its
// wait and the test advancing time.
package clock
