// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// State is the server loop state.
type State int32

const (
	// StateRunning polls channels and dispatches requests.
	StateRunning State = iota
	// StateStopping finishes the current request and exits.
	StateStopping
)

func (s State) String() string {
	if s == StateStopping {
		return "stopping"
	}
	return "running"
}

// DefaultPollInterval is the sleep between polling passes.
const DefaultPollInterval = 10 * time.Millisecond

// maxDrain bounds how many messages one channel may consume in a
// single pass so that a busy shell cannot starve control.
const maxDrain = 16

// ServerConfig configures a Server.
type ServerConfig struct {
	Connection *Connection
	Dispatcher *Dispatcher
	Publisher  *Publisher
	// Evaluator handles shell executions. It may be nil. Control
	// executions never use it.
	Evaluator Evaluator
	// Counter is shared by shell and control. A fresh counter is
	// created when nil.
	Counter      *ExecutionCounter
	PollInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Server is the polling loop. Each pass echoes heartbeats, drains
// stdin, then dispatches shell requests (with the evaluator) and
// control requests (without one), and sleeps for PollInterval.
type Server struct {
	connection   *Connection
	dispatcher   *Dispatcher
	publisher    *Publisher
	evaluator    Evaluator
	counter      *ExecutionCounter
	pollInterval time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	state atomic.Int32
	// stop cancels the loop context. Set for the duration of Run.
	stop context.CancelFunc
}

// NewServer returns a Server in StateRunning.
func NewServer(config ServerConfig) *Server {
	if config.Counter == nil {
		config.Counter = &ExecutionCounter{}
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		connection:   config.Connection,
		dispatcher:   config.Dispatcher,
		publisher:    config.Publisher,
		evaluator:    config.Evaluator,
		counter:      config.Counter,
		pollInterval: config.PollInterval,
		clock:        config.Clock,
		logger:       config.Logger,
	}
}

// State returns the current loop state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Counter returns the shared execution counter.
func (s *Server) Counter() *ExecutionCounter {
	return s.counter
}

// Run drives the loop until a shutdown_request is handled or ctx is
// cancelled, then closes the connection. A shutdown request's reply is
// always sent before Run returns. A panic anywhere in the loop is
// recovered and returned as an error, since protocol state after a
// panic cannot be trusted.
func (s *Server) Run(ctx context.Context) (err error) {
	loopCtx, stop := context.WithCancel(ctx)
	s.stop = stop
	defer stop()

	defer func() {
		if closeErr := s.connection.Close(); closeErr != nil {
			s.logger.Error("closing connection", "error", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.state.Store(int32(StateStopping))
			s.logger.Error("kernel loop panic",
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("kernel loop panic: %v", recovered)
		}
	}()

	if err := s.publisher.Status(nil, wire.StateStarting); err != nil {
		s.logger.Error("publishing starting status", "error", err)
	}
	connectionConfig := s.connection.Config()
	s.logger.Info("kernel loop running",
		"transport", string(connectionConfig.Transport),
		"ip", connectionConfig.IP,
		"signed", connectionConfig.Key != "",
		"poll_interval", s.pollInterval.String(),
	)

	for s.State() == StateRunning {
		if loopCtx.Err() != nil {
			s.state.Store(int32(StateStopping))
			break
		}
		s.pass(loopCtx)
		if s.State() != StateRunning {
			break
		}
		select {
		case <-loopCtx.Done():
		case <-s.clock.After(s.pollInterval):
		}
	}

	s.logger.Info("kernel loop stopped", "execution_count", s.counter.Current())
	return nil
}

// requestStop moves the loop to StateStopping and interrupts any wait.
func (s *Server) requestStop() {
	s.state.Store(int32(StateStopping))
	if s.stop != nil {
		s.stop()
	}
}

// pass performs one bounded, non-blocking sweep over the channels.
func (s *Server) pass(ctx context.Context) {
	s.pumpHeartbeat()
	s.drainStdin()
	s.serve(ctx, s.connection.Shell(), s.evaluator)
	if s.State() != StateRunning {
		return
	}
	s.serve(ctx, s.connection.Control(), nil)
}

func (s *Server) pumpHeartbeat() {
	channel := s.connection.Heartbeat()
	for range maxDrain {
		ready, err := channel.Poll()
		if err != nil {
			s.logger.Warn("heartbeat poll failed", "error", err)
			return
		}
		if !ready {
			return
		}
		if err := channel.Echo(); err != nil {
			s.logger.Warn("heartbeat echo failed", "error", err)
			return
		}
	}
}

func (s *Server) drainStdin() {
	channel := s.connection.Stdin()
	for range maxDrain {
		ready, err := channel.Poll()
		if err != nil {
			s.logger.Warn("stdin poll failed", "error", err)
			return
		}
		if !ready {
			return
		}
		frames, err := channel.Drop()
		if err != nil {
			s.logger.Warn("stdin receive failed", "error", err)
			return
		}
		s.logger.Debug("dropped stdin message", "frames", frames)
	}
}

// serve dispatches up to maxDrain requests from channel.
func (s *Server) serve(ctx context.Context, channel *Channel, evaluator Evaluator) {
	role := channel.Role().String()
	for range maxDrain {
		ready, err := channel.Poll()
		if err != nil {
			s.logger.Error("poll failed", "role", role, "error", err)
			return
		}
		if !ready {
			return
		}

		message, err := channel.Receive()
		if err != nil {
			var protocolErr *wire.ProtocolError
			if errors.As(err, &protocolErr) {
				s.logger.Warn("dropping malformed message", "role", role, "error", err)
				continue
			}
			s.logger.Error("receive failed", "role", role, "error", err)
			return
		}

		disposition, err := s.dispatcher.Dispatch(ctx, Request{
			Message:   message,
			Reply:     channel,
			Broadcast: s.publisher,
			Counter:   s.counter,
			Evaluator: evaluator,
		})
		if err != nil {
			s.logger.Error("dispatch failed",
				"role", role,
				"msg_type", message.Header.MsgType,
				"msg_id", message.Header.MsgID,
				"error", err,
			)
		}
		if disposition == DispositionShutdown {
			s.logger.Info("shutdown requested", "role", role)
			s.requestStop()
			return
		}
	}
}
