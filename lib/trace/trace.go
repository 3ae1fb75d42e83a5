// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/codec"
	"github.com/bureau-foundation/kernel/lib/kernel"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Record is one transcript entry.
type Record struct {
	// Time is Unix nanoseconds when the message was observed.
	Time        int64  `cbor:"time"`
	Direction   string `cbor:"direction"`
	Role        string `cbor:"role"`
	MsgType     string `cbor:"msg_type"`
	MsgID       string `cbor:"msg_id"`
	ParentMsgID string `cbor:"parent_msg_id,omitempty"`
	Session     string `cbor:"session"`
	// Content is the message content JSON as sent or received.
	Content []byte `cbor:"content"`
}

// Timestamp returns Time as a time.Time in UTC.
func (r Record) Timestamp() time.Time {
	return time.Unix(0, r.Time).UTC()
}

// String renders the record as one line:
//
//	2026-03-01T09:30:00.000000Z shell in  execute_request 4f1c… {"code":"1+1"}
func (r Record) String() string {
	line := fmt.Sprintf("%s %-9s %-3s %s %s", wire.FormatDate(r.Timestamp()), r.Role, r.Direction, r.MsgType, r.MsgID)
	if r.ParentMsgID != "" {
		line += " parent=" + r.ParentMsgID
	}
	return line + " " + string(r.Content)
}

// Recorder appends a Record for every observed message. Write failures
// are logged once and kept for Err; recording then stops so the
// kernel keeps serving.
type Recorder struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	encoder *codec.Encoder
	closer  io.Closer
	err     error
}

var _ kernel.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to w. If w is an io.Closer,
// Close closes it.
func NewRecorder(w io.Writer, clk clock.Clock, logger *slog.Logger) *Recorder {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	recorder := &Recorder{
		clock:   clk,
		logger:  logger,
		encoder: codec.NewEncoder(w),
	}
	if closer, ok := w.(io.Closer); ok {
		recorder.closer = closer
	}
	return recorder
}

// Create opens path for appending and returns a Recorder writing to it.
func Create(path string, clk clock.Clock, logger *slog.Logger) (*Recorder, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	return NewRecorder(file, clk, logger), nil
}

// Observe implements kernel.Observer.
func (r *Recorder) Observe(role kernel.Role, direction kernel.Direction, message *wire.Message) {
	record := Record{
		Time:      r.clock.Now().UnixNano(),
		Direction: direction.String(),
		Role:      role.String(),
		MsgType:   message.Header.MsgType,
		MsgID:     message.Header.MsgID,
		Session:   message.Header.Session,
		Content:   append([]byte(nil), message.Content...),
	}
	if parent, err := message.Parent(); err == nil {
		record.ParentMsgID = parent.MsgID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.encoder.Encode(record); err != nil {
		r.err = fmt.Errorf("writing transcript record: %w", err)
		r.logger.Error("transcript disabled", "error", r.err)
	}
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the underlying writer if it is a Closer and returns
// the first write error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closeErr error
	if r.closer != nil {
		closeErr = r.closer.Close()
		r.closer = nil
	}
	return errors.Join(r.err, closeErr)
}

// Reader reads Records from a transcript.
type Reader struct {
	decoder *codec.Decoder
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: codec.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end.
func (r *Reader) Next() (Record, error) {
	var record Record
	if err := r.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("reading transcript record: %w", err)
	}
	return record, nil
}
