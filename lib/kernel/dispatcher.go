// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Disposition tells the server loop what to do after a dispatch.
type Disposition int

const (
	// DispositionContinue keeps the loop running.
	DispositionContinue Disposition = iota
	// DispositionShutdown stops the loop. It is returned only after
	// the shutdown reply has been sent.
	DispositionShutdown
)

func (d Disposition) String() string {
	if d == DispositionShutdown {
		return "shutdown"
	}
	return "continue"
}

// KernelInfo is the identity reported in kernel_info_reply.
type KernelInfo struct {
	Implementation        string
	ImplementationVersion string
	Language              wire.LanguageInfo
	Banner                string
}

// DispatcherConfig holds the Dispatcher's fixed inputs.
type DispatcherConfig struct {
	Info KernelInfo
	// Ports is the connect_reply content, normally
	// [ConnectionConfig.PortMap].
	Ports map[string]int
	// Composer builds replies. It should be the Publisher's composer
	// so replies and broadcasts share a session.
	Composer *wire.Composer
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Dispatcher maps one inbound request onto its replies and broadcasts.
// It holds no per-request state: the execution counter, evaluator, and
// channels are supplied with each Request, so one Dispatcher serves
// shell and control alike.
type Dispatcher struct {
	info     KernelInfo
	ports    map[string]int
	composer *wire.Composer
	clock    clock.Clock
	logger   *slog.Logger
}

// NewDispatcher returns a Dispatcher. Clock defaults to the real clock
// and Logger to slog.Default().
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Ports == nil {
		config.Ports = map[string]int{}
	}
	if config.Composer == nil {
		config.Composer = wire.NewComposer("kernel", config.Clock.Now)
	}
	return &Dispatcher{
		info:     config.Info,
		ports:    config.Ports,
		composer: config.Composer,
		clock:    config.Clock,
		logger:   config.Logger,
	}
}

// Request is one inbound message together with everything needed to
// answer it.
type Request struct {
	Message *wire.Message
	// Reply is the channel the request arrived on.
	Reply *Channel
	// Broadcast is the shared iopub sink.
	Broadcast *Publisher
	Counter   *ExecutionCounter
	// Evaluator is nil on the control channel.
	Evaluator Evaluator
}

// Dispatch handles request. Every request receives exactly one reply,
// unrecognized types included. A non-nil error means the reply could
// not be sent or the request content could not be decoded.
func (d *Dispatcher) Dispatch(ctx context.Context, request Request) (Disposition, error) {
	message := request.Message
	kind := wire.ClassifyRequest(message.Header.MsgType)
	d.logger.Debug("dispatching request",
		"role", request.Reply.Role().String(),
		"msg_type", message.Header.MsgType,
		"msg_id", message.Header.MsgID,
	)

	switch kind {
	case wire.RequestKernelInfo:
		return DispositionContinue, d.reply(request, d.kernelInfo(request.Evaluator), nil)

	case wire.RequestHistory:
		return DispositionContinue, d.reply(request, wire.HistoryReplyContent{
			Status:  wire.StatusOK,
			History: []any{},
		}, nil)

	case wire.RequestShutdown:
		// The request content (restart flag and anything else) is
		// echoed verbatim.
		if err := d.reply(request, message.Content, nil); err != nil {
			return DispositionShutdown, err
		}
		return DispositionShutdown, nil

	case wire.RequestConnect:
		return DispositionContinue, d.reply(request, d.ports, nil)

	case wire.RequestExecute:
		return DispositionContinue, d.execute(ctx, request)

	case wire.RequestIsComplete:
		return DispositionContinue, d.reply(request, wire.IsCompleteReplyContent{
			Status: wire.IsCompleteComplete,
		}, nil)

	default:
		d.logger.Warn("unsupported request type",
			"role", request.Reply.Role().String(),
			"msg_type", message.Header.MsgType,
		)
		reply, err := d.composer.Compose(wire.UnsupportedMessageReply, message, nil, nil)
		if err != nil {
			return DispositionContinue, err
		}
		return DispositionContinue, request.Reply.Send(reply)
	}
}

func (d *Dispatcher) reply(request Request, content, metadata any) error {
	reply, err := d.composer.Reply(request.Message, content, metadata)
	if err != nil {
		return err
	}
	return request.Reply.Send(reply)
}

func (d *Dispatcher) kernelInfo(evaluator Evaluator) wire.KernelInfoReplyContent {
	language := d.info.Language
	if reporter, ok := evaluator.(LanguageReporter); ok {
		language = reporter.LanguageInfo()
	}
	return wire.KernelInfoReplyContent{
		Status:                wire.StatusOK,
		ProtocolVersion:       wire.ProtocolVersion,
		Implementation:        d.info.Implementation,
		ImplementationVersion: d.info.ImplementationVersion,
		LanguageInfo:          language,
		Banner:                d.info.Banner,
		HelpLinks:             []any{},
	}
}

// execute runs the execution sequence: busy, execute_input, evaluate,
// execute_result, idle, then execute_reply on the request's channel.
// Broadcast failures are logged and the sequence continues so that the
// requester still gets its reply.
func (d *Dispatcher) execute(ctx context.Context, request Request) error {
	message := request.Message
	var content wire.ExecuteRequestContent
	if err := message.DecodeContent(&content); err != nil {
		return &wire.ProtocolError{Reason: "decoding execute_request content", Err: err}
	}

	count := request.Counter.Next()
	started := wire.FormatDate(d.clock.Now())
	logger := d.logger.With(
		"role", request.Reply.Role().String(),
		"execution_count", count,
	)

	d.broadcast(logger, request.Broadcast.Status(message, wire.StateBusy))
	d.broadcast(logger, request.Broadcast.Publish(wire.ExecuteInput, message, wire.ExecuteInputContent{
		ExecutionCount: count,
		Code:           content.Code,
	}))

	result := evaluate(ctx, request.Evaluator, content.Code, request.Broadcast.Output(message))
	logger.Debug("evaluated", "result", result.Kind.String())

	d.broadcast(logger, request.Broadcast.Publish(wire.ExecuteResult, message, wire.ExecuteResultContent{
		ExecutionCount: count,
		Data:           map[string]string{wire.MimeTextPlain: result.Render()},
		Metadata:       map[string]any{},
	}))
	d.broadcast(logger, request.Broadcast.Status(message, wire.StateIdle))

	err := d.reply(request, wire.ExecuteReplyContent{
		Status:          wire.StatusOK,
		ExecutionCount:  count,
		UserVariables:   map[string]any{},
		Payload:         []any{},
		UserExpressions: map[string]any{},
	}, wire.ExecuteReplyMetadata{
		DependenciesMet: true,
		Engine:          message.Header.Session,
		Status:          wire.StatusOK,
		Started:         started,
	})
	if err != nil {
		return fmt.Errorf("execute_reply %d: %w", count, err)
	}
	return nil
}

func (d *Dispatcher) broadcast(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("iopub broadcast failed", "error", err)
	}
}
