// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/kernel/lib/kernel"
)

// lockedBuffer is written from the stdout and stderr copy goroutines.
type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

func newShell(t *testing.T, mode Mode, timeout time.Duration) *Subprocess {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	evaluator, err := NewSubprocess(Config{
		Command: []string{"sh"},
		Mode:    mode,
		Timeout: timeout,
		Env:     []string{"KERNEL_TEST_GREETING=hello"},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewSubprocess: %v", err)
	}
	return evaluator
}

func outputs() (*lockedBuffer, *lockedBuffer, kernel.Output) {
	stdout, stderr := &lockedBuffer{}, &lockedBuffer{}
	return stdout, stderr, kernel.Output{Stdout: stdout, Stderr: stderr}
}

func TestValueMode(t *testing.T) {
	evaluator := newShell(t, Value, 0)
	stdout, _, output := outputs()

	result := evaluator.Evaluate(t.Context(), "echo $((1+1))", output)
	if result.Kind != kernel.ResultValue || result.Text != "2" {
		t.Errorf("result = %+v, want value 2", result)
	}
	if stdout.String() != "" {
		t.Errorf("value mode forwarded stdout %q", stdout.String())
	}
}

func TestValueModeEmptyOutputIsUnit(t *testing.T) {
	evaluator := newShell(t, Value, 0)
	_, _, output := outputs()
	if result := evaluator.Evaluate(t.Context(), "true", output); result.Kind != kernel.ResultUnit {
		t.Errorf("result = %+v, want unit", result)
	}
}

func TestStreamMode(t *testing.T) {
	evaluator := newShell(t, Stream, 0)
	stdout, stderr, output := outputs()

	result := evaluator.Evaluate(t.Context(), "echo $KERNEL_TEST_GREETING\necho oops >&2", output)
	if result.Kind != kernel.ResultUnit {
		t.Errorf("result = %+v, want unit", result)
	}
	if stdout.String() != "hello\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "oops\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestNonZeroExitIsFailure(t *testing.T) {
	evaluator := newShell(t, Value, 0)
	_, stderr, output := outputs()

	result := evaluator.Evaluate(t.Context(), "echo failing >&2; exit 3", output)
	if result.Kind != kernel.ResultError || result.Text != "exit status 3" {
		t.Errorf("result = %+v, want error exit status 3", result)
	}
	if result.Render() != "Error: exit status 3" {
		t.Errorf("Render = %q", result.Render())
	}
	if stderr.String() != "failing\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestBlankAndIncompleteCode(t *testing.T) {
	evaluator := newShell(t, Value, 0)
	_, _, output := outputs()

	if result := evaluator.Evaluate(t.Context(), "  \n\t", output); result.Kind != kernel.ResultUnit {
		t.Errorf("blank code = %+v, want unit", result)
	}
	if result := evaluator.Evaluate(t.Context(), "echo one \\\n", output); result.Kind != kernel.ResultIncomplete {
		t.Errorf("continued line = %+v, want incomplete", result)
	}
}

func TestTimeout(t *testing.T) {
	evaluator := newShell(t, Stream, 100*time.Millisecond)
	_, _, output := outputs()

	result := evaluator.Evaluate(t.Context(), "sleep 10", output)
	if result.Kind != kernel.ResultError || !strings.Contains(result.Text, "timed out") {
		t.Errorf("result = %+v, want timeout error", result)
	}
}

func TestCancelledContext(t *testing.T) {
	evaluator := newShell(t, Stream, 0)
	_, _, output := outputs()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if result := evaluator.Evaluate(ctx, "echo never", output); result.Kind != kernel.ResultError {
		t.Errorf("result = %+v, want error", result)
	}
}

func TestMissingInterpreter(t *testing.T) {
	evaluator, err := NewSubprocess(Config{Command: []string{"/nonexistent/interpreter"}})
	if err != nil {
		t.Fatalf("NewSubprocess: %v", err)
	}
	_, _, output := outputs()
	if result := evaluator.Evaluate(t.Context(), "x", output); result.Kind != kernel.ResultError {
		t.Errorf("result = %+v, want error", result)
	}
}

func TestNewSubprocessValidation(t *testing.T) {
	tests := map[string]Config{
		"empty command":    {},
		"blank argv0":      {Command: []string{""}},
		"unknown mode":     {Command: []string{"sh"}, Mode: "batch"},
		"negative timeout": {Command: []string{"sh"}, Timeout: -time.Second},
	}
	for name, config := range tests {
		if _, err := NewSubprocess(config); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	evaluator, err := NewSubprocess(Config{Command: []string{"sh"}})
	if err != nil {
		t.Fatalf("NewSubprocess: %v", err)
	}
	if evaluator.mode != Stream {
		t.Errorf("default mode = %q, want stream", evaluator.mode)
	}
}

func TestContinues(t *testing.T) {
	tests := map[string]bool{
		"echo a":          false,
		"echo a \\":       true,
		"echo a \\\n  \n": true,
		"echo 'a\\b'":     false,
		"printf '\\\\'\n": false,
	}
	for code, want := range tests {
		if got := continues(code); got != want {
			t.Errorf("continues(%q) = %v, want %v", code, got, want)
		}
	}
}
