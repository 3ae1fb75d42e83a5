// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"sync"

	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Direction tells an [Observer] whether a message was received or sent.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "out"
	}
	return "in"
}

// Observer sees every message that crosses a channel boundary, after
// decoding on receive and after a successful send. Observe is called
// with the channel lock held and must not call back into the channel.
type Observer interface {
	Observe(role Role, direction Direction, message *wire.Message)
}

// Channel is one role's endpoint. It frames and verifies inbound
// messages, frames and signs outbound ones, and serializes access to
// the underlying socket so concurrent senders never interleave frames.
type Channel struct {
	role     Role
	socket   Socket
	codec    *wire.Codec
	observer Observer
	// rebind binds a replacement socket. Only the heartbeat channel
	// has one; see Echo.
	rebind func() (Socket, error)

	mu     sync.Mutex
	closed bool
	// stale is set when socket has been closed for replacement but
	// the rebind failed. Poll and Echo retry the rebind first.
	stale bool
}

func newChannel(role Role, socket Socket, codec *wire.Codec, observer Observer, rebind func() (Socket, error)) *Channel {
	return &Channel{
		role:     role,
		socket:   socket,
		codec:    codec,
		observer: observer,
		rebind:   rebind,
	}
}

// Role returns the channel's role.
func (c *Channel) Role() Role {
	return c.role
}

// Poll reports whether a message is waiting, without blocking.
func (c *Channel) Poll() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrConnectionClosed
	}
	if c.stale {
		if err := c.replaceSocket(); err != nil {
			return false, err
		}
	}
	ready, err := c.socket.Poll()
	if err != nil {
		return false, &TransportError{Role: c.role, Op: "poll", Err: err}
	}
	return ready, nil
}

// Receive reads and decodes one message. Framing and signature
// failures are *wire.ProtocolError; the bad message has been consumed
// and the channel remains usable.
func (c *Channel) Receive() (*wire.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	frames, err := c.socket.RecvFrames()
	if err != nil {
		return nil, &TransportError{Role: c.role, Op: "receive", Err: err}
	}
	message, err := c.codec.Decode(frames)
	if err != nil {
		return nil, err
	}
	if c.observer != nil {
		c.observer.Observe(c.role, Inbound, message)
	}
	return message, nil
}

// Send encodes, signs, and sends one message.
func (c *Channel) Send(message *wire.Message) error {
	frames, err := c.codec.Encode(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.socket.SendFrames(frames); err != nil {
		return &TransportError{Role: c.role, Op: "send", Err: err}
	}
	if c.observer != nil {
		c.observer.Observe(c.role, Outbound, message)
	}
	return nil
}

// Echo receives one raw message and sends it back unchanged, without
// decoding. It is the whole of the heartbeat protocol.
//
// The heartbeat socket is request/reply: after a receive it accepts
// only a send. If the echo cannot be sent the socket is closed and a
// fresh one bound at the same endpoint, so one failure does not stop
// every later heartbeat.
func (c *Channel) Echo() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if c.stale {
		if err := c.replaceSocket(); err != nil {
			return err
		}
	}
	frames, err := c.socket.RecvFrames()
	if err != nil {
		return &TransportError{Role: c.role, Op: "receive", Err: err}
	}
	if err := c.socket.SendFrames(frames); err != nil {
		sendErr := &TransportError{Role: c.role, Op: "send", Err: err}
		if c.rebind == nil {
			return sendErr
		}
		if rebindErr := c.replaceSocket(); rebindErr != nil {
			return errors.Join(sendErr, rebindErr)
		}
		return sendErr
	}
	return nil
}

// replaceSocket closes the current socket, unless a previous attempt
// already did, and binds a new one. Callers hold c.mu.
func (c *Channel) replaceSocket() error {
	var closeErr error
	if !c.stale {
		closeErr = c.socket.Close()
		c.stale = true
	}
	socket, err := c.rebind()
	if err != nil {
		return &TransportError{Role: c.role, Op: "rebind", Err: errors.Join(err, closeErr)}
	}
	c.socket = socket
	c.stale = false
	return nil
}

// Drop receives one raw message and discards it.
func (c *Channel) Drop() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrConnectionClosed
	}
	frames, err := c.socket.RecvFrames()
	if err != nil {
		return 0, &TransportError{Role: c.role, Op: "receive", Err: err}
	}
	return len(frames), nil
}

// Close releases the socket. Later calls return nil; every other
// operation afterwards returns ErrConnectionClosed.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.stale {
		return nil
	}
	if err := c.socket.Close(); err != nil {
		return &TransportError{Role: c.role, Op: "close", Err: err}
	}
	return nil
}
