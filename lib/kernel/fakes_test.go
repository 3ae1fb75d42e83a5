// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

var testEpoch = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// memorySocket is an in-process Socket. Tests inject inbound frames and
// inspect what the kernel sent.
type memorySocket struct {
	mu       sync.Mutex
	inbound  [][][]byte
	outbound [][][]byte
	closed   int
	sendErr  error
	pollHook func()
}

func (s *memorySocket) Poll() (bool, error) {
	s.mu.Lock()
	hook := s.pollHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 {
		return false, errors.New("socket closed")
	}
	return len(s.inbound) > 0, nil
}

func (s *memorySocket) RecvFrames() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inbound) == 0 {
		return nil, errors.New("no message queued")
	}
	frames := s.inbound[0]
	s.inbound = s.inbound[1:]
	return frames, nil
}

func (s *memorySocket) SendFrames(frames [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	copied := make([][]byte, len(frames))
	for i, frame := range frames {
		copied[i] = append([]byte(nil), frame...)
	}
	s.outbound = append(s.outbound, copied)
	return nil
}

func (s *memorySocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *memorySocket) inject(frames [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, frames)
}

func (s *memorySocket) sent() [][][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][][]byte(nil), s.outbound...)
}

func (s *memorySocket) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// memoryBinder hands out memorySockets and records bind order.
type memoryBinder struct {
	sockets   [NumRoles]*memorySocket
	endpoints []string
	order     []Role
	failRole  Role
	fail      bool
}

func (b *memoryBinder) Bind(role Role, endpoint string) (Socket, error) {
	if b.fail && role == b.failRole {
		return nil, errors.New("address already in use")
	}
	socket := &memorySocket{}
	b.sockets[role] = socket
	b.endpoints = append(b.endpoints, endpoint)
	b.order = append(b.order, role)
	return socket, nil
}

func testConfig(key string) *ConnectionConfig {
	return &ConnectionConfig{
		Transport:       TCP,
		IP:              "127.0.0.1",
		Ports:           [NumRoles]int{Shell: 1, IOPub: 2, Stdin: 3, Control: 4, Heartbeat: 5},
		SignatureScheme: "hmac-sha256",
		Key:             key,
	}
}

// harness wires a Connection over memory sockets to a Dispatcher and
// Publisher, and plays the front-end side.
type harness struct {
	t          *testing.T
	config     *ConnectionConfig
	binder     *memoryBinder
	connection *Connection
	clock      *clock.FakeClock
	client     *wire.Codec
	composer   *wire.Composer
	publisher  *Publisher
	dispatcher *Dispatcher
	counter    *ExecutionCounter
	// logs collects what the dispatcher and publisher log. Read it
	// only after the code under test has returned.
	logs *bytes.Buffer
}

func newHarness(t *testing.T, key string) *harness {
	t.Helper()
	config := testConfig(key)
	binder := &memoryBinder{}
	connection, err := Open(config, binder, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { connection.Close() })

	fakeClock := clock.Fake(testEpoch)
	signer, err := config.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	kernelComposer := &wire.Composer{Session: "kernel-session", Username: "kernel", Now: fakeClock.Now}
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	return &harness{
		t:          t,
		config:     config,
		binder:     binder,
		connection: connection,
		clock:      fakeClock,
		client:     wire.NewCodec(signer),
		composer:   &wire.Composer{Session: "client-session", Username: "tester", Now: fakeClock.Now},
		publisher:  NewPublisher(connection.IOPub(), kernelComposer, logger),
		dispatcher: NewDispatcher(DispatcherConfig{
			Info: KernelInfo{
				Implementation:        "bureau-kernel",
				ImplementationVersion: "0.1.0",
				Language:              wire.LanguageInfo{Name: "shell", Mimetype: "text/x-sh", FileExtension: ".sh"},
				Banner:                "test kernel",
			},
			Ports:    config.PortMap(),
			Composer: kernelComposer,
			Clock:    fakeClock,
			Logger:   logger,
		}),
		counter: &ExecutionCounter{},
		logs:    logs,
	}
}

// send injects a request on role as a front-end would, and returns it.
func (h *harness) send(role Role, msgType wire.MsgType, content any) *wire.Message {
	h.t.Helper()
	message, err := h.composer.Compose(msgType, nil, content, nil)
	if err != nil {
		h.t.Fatalf("Compose: %v", err)
	}
	message.Identities = [][]byte{[]byte("client-" + role.String())}
	frames, err := h.client.Encode(message)
	if err != nil {
		h.t.Fatalf("Encode: %v", err)
	}
	h.binder.sockets[role].inject(frames)
	return message
}

// dispatchNext receives the next message on role and dispatches it.
func (h *harness) dispatchNext(role Role, evaluator Evaluator) Disposition {
	h.t.Helper()
	channel := h.connection.Channel(role)
	message, err := channel.Receive()
	if err != nil {
		h.t.Fatalf("Receive on %s: %v", role, err)
	}
	disposition, err := h.dispatcher.Dispatch(h.t.Context(), Request{
		Message:   message,
		Reply:     channel,
		Broadcast: h.publisher,
		Counter:   h.counter,
		Evaluator: evaluator,
	})
	if err != nil {
		h.t.Fatalf("Dispatch: %v", err)
	}
	return disposition
}

// sent decodes every message the kernel sent on role.
func (h *harness) sent(role Role) []*wire.Message {
	h.t.Helper()
	var messages []*wire.Message
	for _, frames := range h.binder.sockets[role].sent() {
		message, err := h.client.Decode(frames)
		if err != nil {
			h.t.Fatalf("decoding %s output: %v", role, err)
		}
		messages = append(messages, message)
	}
	return messages
}

func msgTypes(messages []*wire.Message) []string {
	types := make([]string, len(messages))
	for i, message := range messages {
		types[i] = message.Header.MsgType
	}
	return types
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func decodeContent[T any](t *testing.T, message *wire.Message) T {
	t.Helper()
	var content T
	if err := message.DecodeContent(&content); err != nil {
		t.Fatalf("decoding %s content: %v", message.Header.MsgType, err)
	}
	return content
}

func requireParent(t *testing.T, message, request *wire.Message) {
	t.Helper()
	parent, err := message.Parent()
	if err != nil {
		t.Fatalf("decoding parent of %s: %v", message.Header.MsgType, err)
	}
	if parent != request.Header {
		t.Errorf("%s parent = %+v, want %+v", message.Header.MsgType, parent, request.Header)
	}
}
