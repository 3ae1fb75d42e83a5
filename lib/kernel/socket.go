// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

// Socket is a bound multipart transport endpoint. Implementations need
// not be safe for concurrent use: [Channel] serializes access.
type Socket interface {
	// Poll reports whether a complete message is queued, without
	// blocking.
	Poll() (bool, error)
	// RecvFrames returns the next queued message as raw frames.
	RecvFrames() ([][]byte, error)
	// SendFrames sends one multipart message.
	SendFrames(frames [][]byte) error
	Close() error
}

// Binder creates the socket for a role at an endpoint. The socket type
// follows the role: request/reply routing for shell, control, and
// stdin; publish for iopub; strict request/reply for heartbeat.
type Binder interface {
	Bind(role Role, endpoint string) (Socket, error)
}
