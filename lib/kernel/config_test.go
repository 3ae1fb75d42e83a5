// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleConnectionFile = `{
  // written by the front-end
  "shell_port": 53794,
  "iopub_port": 53795,
  "stdin_port": 53796,
  "control_port": 53797,
  "hb_port": 53798,
  "ip": "127.0.0.1",
  "key": "a0436f6c-1916-498b-8eb9-e81ab9368e84",
  "transport": "tcp",
  "signature_scheme": "hmac-sha256",
  "kernel_name": "bureau",
}`

func TestParseConnectionFile(t *testing.T) {
	config, err := ParseConnectionFile([]byte(sampleConnectionFile))
	if err != nil {
		t.Fatalf("ParseConnectionFile: %v", err)
	}
	if config.Transport != TCP || config.IP != "127.0.0.1" || config.KernelName != "bureau" {
		t.Errorf("config = %+v", config)
	}
	want := [NumRoles]int{Shell: 53794, IOPub: 53795, Stdin: 53796, Control: 53797, Heartbeat: 53798}
	if config.Ports != want {
		t.Errorf("ports = %v, want %v", config.Ports, want)
	}
	signer, err := config.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if !signer.Enabled() || signer.Scheme() != "hmac-sha256" {
		t.Errorf("signer enabled=%v scheme=%q", signer.Enabled(), signer.Scheme())
	}
}

func TestParseConnectionFileDefaults(t *testing.T) {
	config, err := ParseConnectionFile([]byte(`{"transport":"tcp","shell_port":1,"iopub_port":2,"stdin_port":3,"control_port":4,"hb_port":5,"key":""}`))
	if err != nil {
		t.Fatalf("ParseConnectionFile: %v", err)
	}
	if config.IP != DefaultIP {
		t.Errorf("ip = %q, want %q", config.IP, DefaultIP)
	}
	signer, err := config.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if signer.Enabled() {
		t.Error("empty key enabled signing")
	}
}

func TestParseConnectionFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"not json", `{"transport": tcp}`, ""},
		{"missing transport", `{"shell_port":1,"iopub_port":2,"stdin_port":3,"control_port":4,"hb_port":5}`, "transport"},
		{"missing heartbeat", `{"transport":"tcp","shell_port":1,"iopub_port":2,"stdin_port":3,"control_port":4}`, "hb_port"},
		{"bad transport", `{"transport":"udp","shell_port":1,"iopub_port":2,"stdin_port":3,"control_port":4,"hb_port":5}`, "transport"},
		{"port out of range", `{"transport":"tcp","shell_port":70000,"iopub_port":2,"stdin_port":3,"control_port":4,"hb_port":5}`, "shell_port"},
		{"duplicate port", `{"transport":"tcp","shell_port":1,"iopub_port":1,"stdin_port":3,"control_port":4,"hb_port":5}`, "iopub_port"},
		{"unknown scheme", `{"transport":"tcp","shell_port":1,"iopub_port":2,"stdin_port":3,"control_port":4,"hb_port":5,"key":"k","signature_scheme":"hmac-rot13"}`, "signature_scheme"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseConnectionFile([]byte(test.data))
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("error = %v, want *ConfigError", err)
			}
			if configErr.Field != test.field {
				t.Errorf("field = %q, want %q (error: %v)", configErr.Field, test.field, err)
			}
		})
	}
}

func TestLoadConnectionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel-1234.json")
	if err := os.WriteFile(path, []byte(sampleConnectionFile), 0o600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConnectionFile(path)
	if err != nil {
		t.Fatalf("LoadConnectionFile: %v", err)
	}
	if config.Port(Heartbeat) != 53798 {
		t.Errorf("hb port = %d", config.Port(Heartbeat))
	}

	_, err = LoadConnectionFile(filepath.Join(t.TempDir(), "missing.json"))
	if !IsConfigError(err) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		transport Transport
		ip        string
		want      string
	}{
		{TCP, "127.0.0.1", "tcp://127.0.0.1:1"},
		{TCP, "::1", "tcp://[::1]:1"},
		{IPC, "/tmp/kernel", "ipc:///tmp/kernel-1"},
	}
	for _, test := range tests {
		config := testConfig("")
		config.Transport = test.transport
		config.IP = test.ip
		if got := config.Endpoint(Shell); got != test.want {
			t.Errorf("Endpoint(%s, %s) = %q, want %q", test.transport, test.ip, got, test.want)
		}
	}
}

func TestPortMapKeys(t *testing.T) {
	ports := testConfig("").PortMap()
	want := map[string]int{"shell_port": 1, "iopub_port": 2, "stdin_port": 3, "control_port": 4, "hb_port": 5}
	if len(ports) != len(want) {
		t.Fatalf("PortMap = %v", ports)
	}
	for key, port := range want {
		if ports[key] != port {
			t.Errorf("%s = %d, want %d", key, ports[key], port)
		}
	}
}
