// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import "fmt"

// Role identifies one of the five channels of a kernel connection.
// The numeric order is the binding order and the order of
// [ConnectionConfig].Ports.
type Role int

const (
	// Shell carries execute and introspection requests from the
	// front-end, one reply per request.
	Shell Role = iota
	// IOPub is the broadcast channel for status, echoed input,
	// results, and output streams.
	IOPub
	// Stdin is reserved for input requests to the front-end.
	Stdin
	// Control is a second request/reply channel for kernel
	// management. Execute requests on it never reach an evaluator.
	Control
	// Heartbeat echoes raw payloads so the front-end can detect a
	// dead kernel.
	Heartbeat
)

// NumRoles is the number of channels in a connection.
const NumRoles = 5

// Roles lists every role in binding order.
var Roles = [NumRoles]Role{Shell, IOPub, Stdin, Control, Heartbeat}

func (r Role) String() string {
	switch r {
	case Shell:
		return "shell"
	case IOPub:
		return "iopub"
	case Stdin:
		return "stdin"
	case Control:
		return "control"
	case Heartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// PortKey returns the connection-file field naming this role's port.
// connect_reply uses the same keys.
func (r Role) PortKey() string {
	switch r {
	case Shell:
		return "shell_port"
	case IOPub:
		return "iopub_port"
	case Stdin:
		return "stdin_port"
	case Control:
		return "control_port"
	case Heartbeat:
		return "hb_port"
	default:
		return ""
	}
}

func (r Role) valid() bool {
	return r >= Shell && r <= Heartbeat
}
