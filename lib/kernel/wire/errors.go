// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
)

// ProtocolError reports an inbound message that cannot be accepted:
// malformed framing, a signature mismatch, or undecodable JSON. The
// offending message is dropped; the channel stays usable.
//
//	var protocolErr *wire.ProtocolError
//	if errors.As(err, &protocolErr) { ... }
type ProtocolError struct {
	// Reason is a short description of what was wrong with the frames.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

func protocolErrorf(err error, format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...), Err: err}
}
