// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Connection owns the five channels described by a ConnectionConfig.
// Open binds all of them or none; Close releases all of them.
type Connection struct {
	config   *ConnectionConfig
	channels [NumRoles]*Channel

	closeOnce sync.Once
	closeErr  error
}

// Open validates config and binds one socket per role through binder,
// in role order. If any bind fails, the sockets already bound are
// closed before the error is returned. observer may be nil.
func Open(config *ConnectionConfig, binder Binder, observer Observer) (*Connection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	signer, err := config.Signer()
	if err != nil {
		return nil, err
	}
	codec := wire.NewCodec(signer)

	connection := &Connection{config: config}
	for _, role := range Roles {
		socket, err := binder.Bind(role, config.Endpoint(role))
		if err != nil {
			bindErr := &TransportError{Role: role, Op: "bind", Err: fmt.Errorf("%s: %w", config.Endpoint(role), err)}
			if closeErr := connection.closeChannels(); closeErr != nil {
				return nil, errors.Join(bindErr, closeErr)
			}
			return nil, bindErr
		}
		var rebind func() (Socket, error)
		if role == Heartbeat {
			endpoint := config.Endpoint(role)
			rebind = func() (Socket, error) { return binder.Bind(role, endpoint) }
		}
		connection.channels[role] = newChannel(role, socket, codec, observer, rebind)
	}
	return connection, nil
}

// Config returns the configuration the connection was opened with.
func (c *Connection) Config() *ConnectionConfig {
	return c.config
}

// Channel returns the channel for role.
func (c *Connection) Channel(role Role) *Channel {
	if !role.valid() {
		return nil
	}
	return c.channels[role]
}

func (c *Connection) Shell() *Channel     { return c.channels[Shell] }
func (c *Connection) IOPub() *Channel     { return c.channels[IOPub] }
func (c *Connection) Stdin() *Channel     { return c.channels[Stdin] }
func (c *Connection) Control() *Channel   { return c.channels[Control] }
func (c *Connection) Heartbeat() *Channel { return c.channels[Heartbeat] }

// Close closes every channel. It is idempotent: the first call's
// result is returned by every later call.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.closeChannels()
	})
	return c.closeErr
}

func (c *Connection) closeChannels() error {
	var errs []error
	for _, channel := range c.channels {
		if channel == nil {
			continue
		}
		if err := channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
