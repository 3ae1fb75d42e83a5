// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"io"
	"log/slog"

	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Publisher is the iopub broadcast sink shared by every handler.
// Sends go through the iopub Channel, which serializes writers.
type Publisher struct {
	channel  *Channel
	composer *wire.Composer
	logger   *slog.Logger
}

// NewPublisher returns a Publisher sending on channel. logger receives
// stream output that could not be broadcast; nil means slog.Default().
func NewPublisher(channel *Channel, composer *wire.Composer, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{channel: channel, composer: composer, logger: logger}
}

// Publish broadcasts a message of msgType as a child of parent, which
// may be nil. The msg_type is used as the subscription topic in place
// of the parent's routing identities.
func (p *Publisher) Publish(msgType wire.MsgType, parent *wire.Message, content any) error {
	message, err := p.composer.Compose(msgType, parent, content, nil)
	if err != nil {
		return err
	}
	message.Identities = [][]byte{[]byte(msgType)}
	return p.channel.Send(message)
}

// Status broadcasts an execution_state change.
func (p *Publisher) Status(parent *wire.Message, state string) error {
	return p.Publish(wire.Status, parent, wire.StatusContent{ExecutionState: state})
}

// Output returns writers that broadcast each write as a stream
// message on stdout or stderr, parented to request. A failed broadcast
// is logged and the write still succeeds, so the evaluation keeps
// running and its result is unaffected.
func (p *Publisher) Output(request *wire.Message) Output {
	return Output{
		Stdout: &streamWriter{publisher: p, parent: request, name: wire.StreamStdout},
		Stderr: &streamWriter{publisher: p, parent: request, name: wire.StreamStderr},
	}
}

type streamWriter struct {
	publisher *Publisher
	parent    *wire.Message
	name      string
}

var _ io.Writer = (*streamWriter)(nil)

func (w *streamWriter) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	content := wire.StreamContent{Name: w.name, Text: string(data)}
	if err := w.publisher.Publish(wire.Stream, w.parent, content); err != nil {
		w.publisher.logger.Error("stream broadcast failed",
			"stream", w.name,
			"parent_msg_id", w.parent.Header.MsgID,
			"bytes", len(data),
			"error", err,
		)
	}
	return len(data), nil
}
