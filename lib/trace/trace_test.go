// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/kernel"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

var epoch = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleExchange(t *testing.T) (*wire.Message, *wire.Message) {
	t.Helper()
	composer := &wire.Composer{Session: "session-1", Username: "tester", Now: func() time.Time { return epoch }}
	request, err := composer.Compose(wire.ExecuteRequest, nil, wire.ExecuteRequestContent{Code: "1+1"}, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	reply, err := composer.Reply(request, map[string]any{"status": "ok", "execution_count": 1}, nil)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	return request, reply
}

func TestRecordAndRead(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	var buffer bytes.Buffer
	recorder := NewRecorder(&buffer, fakeClock, quietLogger())

	request, reply := sampleExchange(t)
	recorder.Observe(kernel.Shell, kernel.Inbound, request)
	fakeClock.Advance(time.Millisecond)
	recorder.Observe(kernel.Shell, kernel.Outbound, reply)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader := NewReader(&buffer)
	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Direction != "in" || first.Role != "shell" || first.MsgType != "execute_request" || first.MsgID != request.Header.MsgID {
		t.Errorf("first = %+v", first)
	}
	if first.ParentMsgID != "" {
		t.Errorf("request has parent %q", first.ParentMsgID)
	}
	if !first.Timestamp().Equal(epoch) {
		t.Errorf("timestamp = %v", first.Timestamp())
	}
	if !strings.Contains(string(first.Content), `"code":"1+1"`) {
		t.Errorf("content = %s", first.Content)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.Direction != "out" || second.MsgType != "execute_reply" || second.ParentMsgID != request.Header.MsgID {
		t.Errorf("second = %+v", second)
	}
	if !second.Timestamp().Equal(epoch.Add(time.Millisecond)) {
		t.Errorf("timestamp = %v", second.Timestamp())
	}

	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next at end = %v, want io.EOF", err)
	}
}

func TestCreateAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.cbor")
	request, reply := sampleExchange(t)

	for _, message := range []*wire.Message{request, reply} {
		recorder, err := Create(path, clock.Fake(epoch), quietLogger())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		recorder.Observe(kernel.Control, kernel.Inbound, message)
		if err := recorder.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	reader := NewReader(file)
	count := 0
	for {
		_, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d records, want 2", count)
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestRecorderStopsAfterWriteError(t *testing.T) {
	writer := &failingWriter{}
	recorder := NewRecorder(writer, clock.Fake(epoch), quietLogger())
	request, reply := sampleExchange(t)

	recorder.Observe(kernel.Shell, kernel.Inbound, request)
	recorder.Observe(kernel.Shell, kernel.Outbound, reply)
	if recorder.Err() == nil {
		t.Fatal("Err is nil after a failed write")
	}
	if writer.writes != 1 {
		t.Errorf("writer called %d times, want 1", writer.writes)
	}
	if err := recorder.Close(); err == nil {
		t.Error("Close did not report the write error")
	}
}

func TestRecordString(t *testing.T) {
	record := Record{
		Time:        epoch.UnixNano(),
		Direction:   "out",
		Role:        "iopub",
		MsgType:     "status",
		MsgID:       "m2",
		ParentMsgID: "m1",
		Content:     []byte(`{"execution_state":"idle"}`),
	}
	line := record.String()
	for _, want := range []string{"2026-03-01T09:30:00.000000Z", "iopub", "out", "status", "m2", "parent=m1", `{"execution_state":"idle"}`} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestReaderRejectsGarbage(t *testing.T) {
	reader := NewReader(bytes.NewReader([]byte{0xff, 0x00, 0x13}))
	if _, err := reader.Next(); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Next = %v, want decode error", err)
	}
}
