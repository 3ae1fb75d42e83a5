// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed is returned by every channel operation after the
// owning connection (or the channel itself) has been closed.
var ErrConnectionClosed = errors.New("kernel: connection closed")

// ConfigError reports an unusable connection configuration. It is
// fatal at startup: the server loop never starts.
type ConfigError struct {
	// Field is the connection-file field at fault, or empty when the
	// file as a whole could not be read or parsed.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("connection config: %v", e.Err)
	}
	return fmt.Sprintf("connection config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// TransportError reports a socket-level failure on one channel.
// Heartbeat failures are logged and ignored; shell and control
// failures abort the dispatch in progress but not the loop.
type TransportError struct {
	Role Role
	// Op is the failed operation: "bind", "poll", "receive", "send",
	// or "close".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Role, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
