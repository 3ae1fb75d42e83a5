// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type sampleRecord struct {
	Role    string `cbor:"role"`
	MsgType string `cbor:"msg_type"`
	Parent  string `cbor:"parent,omitempty"`
	Content []byte `cbor:"content"`
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(map[string]int{"shell_port": 1, "iopub_port": 2, "hb_port": 5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(map[string]int{"hb_port": 5, "iopub_port": 2, "shell_port": 1})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("map encoding not deterministic: %x != %x", first, again)
		}
	}
}

func TestStreamSequence(t *testing.T) {
	records := []sampleRecord{
		{Role: "shell", MsgType: "execute_request", Content: []byte(`{"code":"1+1"}`)},
		{Role: "iopub", MsgType: "status", Parent: "m1", Content: []byte(`{"execution_state":"busy"}`)},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got.Role != want.Role || got.MsgType != want.MsgType || got.Parent != want.Parent || !bytes.Equal(got.Content, want.Content) {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
	}
	var extra sampleRecord
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Errorf("Decode past end = %v, want io.EOF", err)
	}
}

func TestDecodeAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"status": "ok", "nested": map[string]any{"count": 1}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Errorf("nested decoded as %T", top["nested"])
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal accepted invalid CBOR")
	}
}

func TestDiagnoseFirst(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	encoder.Encode(sampleRecord{Role: "shell", MsgType: "kernel_info_request"})
	encoder.Encode(sampleRecord{Role: "shell", MsgType: "kernel_info_reply"})

	first, rest, err := DiagnoseFirst(buffer.Bytes())
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}
	if !strings.Contains(first, `"kernel_info_request"`) {
		t.Errorf("first = %s", first)
	}
	second, err := Diagnose(rest)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(second, `"kernel_info_reply"`) {
		t.Errorf("second = %s", second)
	}
}
