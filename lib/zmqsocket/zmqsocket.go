// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package zmqsocket

import (
	"fmt"

	"github.com/pebbe/zmq4"

	"github.com/bureau-foundation/kernel/lib/kernel"
)

// Binder creates ZeroMQ sockets from one context. Close it after the
// connection that used it.
type Binder struct {
	context *zmq4.Context
}

var _ kernel.Binder = (*Binder)(nil)

// New creates a ZeroMQ context.
func New() (*Binder, error) {
	zmqContext, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("creating zmq context: %w", err)
	}
	return &Binder{context: zmqContext}, nil
}

// SocketType returns the ZeroMQ socket type for role.
func SocketType(role kernel.Role) zmq4.Type {
	switch role {
	case kernel.IOPub:
		return zmq4.PUB
	case kernel.Heartbeat:
		return zmq4.REP
	default:
		return zmq4.ROUTER
	}
}

// Bind creates and binds the socket for role at endpoint.
func (b *Binder) Bind(role kernel.Role, endpoint string) (kernel.Socket, error) {
	soc, err := b.context.NewSocket(SocketType(role))
	if err != nil {
		return nil, fmt.Errorf("creating %s socket: %w", role, err)
	}
	// Unsent messages are discarded on close so shutdown never waits
	// on a departed front-end.
	if err := soc.SetLinger(0); err != nil {
		soc.Close()
		return nil, fmt.Errorf("setting linger on %s socket: %w", role, err)
	}
	if err := soc.Bind(endpoint); err != nil {
		soc.Close()
		return nil, err
	}
	return &socket{socket: soc}, nil
}

// Close terminates the context. Every socket must be closed first.
func (b *Binder) Close() error {
	if err := b.context.Term(); err != nil {
		return fmt.Errorf("terminating zmq context: %w", err)
	}
	return nil
}

type socket struct {
	socket *zmq4.Socket
}

func (s *socket) Poll() (bool, error) {
	events, err := s.socket.GetEvents()
	if err != nil {
		return false, err
	}
	return events&zmq4.POLLIN != 0, nil
}

func (s *socket) RecvFrames() ([][]byte, error) {
	return s.socket.RecvMessageBytes(0)
}

func (s *socket) SendFrames(frames [][]byte) error {
	_, err := s.socket.SendMessage(frames)
	return err
}

func (s *socket) Close() error {
	return s.socket.Close()
}
