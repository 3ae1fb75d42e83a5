// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bureau-foundation/kernel/lib/kernel"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Mode selects how interpreter stdout is treated.
type Mode string

const (
	// Stream forwards stdout as output; the result is Unit.
	Stream Mode = "stream"
	// Value collects stdout; the trimmed text is the result.
	Value Mode = "value"
)

// waitDelay bounds how long Evaluate waits for output pipes after the
// interpreter has been killed.
const waitDelay = time.Second

// Config configures a Subprocess.
type Config struct {
	// Command is the interpreter argv. Required.
	Command []string
	Mode    Mode
	// Timeout bounds one execution. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration
	// Dir is the working directory. Empty means the kernel's.
	Dir string
	// Env is appended to the kernel's environment.
	Env []string
	// Language is reported through kernel_info_reply.
	Language wire.LanguageInfo
	Logger   *slog.Logger
}

// Subprocess evaluates code by running an interpreter per execution.
// It keeps no state between executions.
type Subprocess struct {
	command  []string
	mode     Mode
	timeout  time.Duration
	dir      string
	env      []string
	language wire.LanguageInfo
	logger   *slog.Logger
}

var (
	_ kernel.Evaluator        = (*Subprocess)(nil)
	_ kernel.LanguageReporter = (*Subprocess)(nil)
)

// NewSubprocess validates config and returns a Subprocess.
func NewSubprocess(config Config) (*Subprocess, error) {
	if len(config.Command) == 0 || config.Command[0] == "" {
		return nil, errors.New("evaluator command is empty")
	}
	switch config.Mode {
	case Stream, Value:
	case "":
		config.Mode = Stream
	default:
		return nil, fmt.Errorf("unknown evaluator mode %q", config.Mode)
	}
	if config.Timeout < 0 {
		return nil, fmt.Errorf("negative evaluator timeout %s", config.Timeout)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Subprocess{
		command:  append([]string(nil), config.Command...),
		mode:     config.Mode,
		timeout:  config.Timeout,
		dir:      config.Dir,
		env:      append([]string(nil), config.Env...),
		language: config.Language,
		logger:   config.Logger,
	}, nil
}

// LanguageInfo returns the configured language identity.
func (s *Subprocess) LanguageInfo() wire.LanguageInfo {
	return s.language
}

// Evaluate runs code through the interpreter.
func (s *Subprocess) Evaluate(ctx context.Context, code string, output kernel.Output) kernel.Result {
	if strings.TrimSpace(code) == "" {
		return kernel.Unit()
	}
	if continues(code) {
		return kernel.Incomplete()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Stdin = strings.NewReader(code)
	cmd.Dir = s.dir
	cmd.Env = append(os.Environ(), s.env...)
	cmd.Stderr = output.Stderr
	cmd.WaitDelay = waitDelay

	var collected bytes.Buffer
	if s.mode == Value {
		cmd.Stdout = &collected
	} else {
		cmd.Stdout = output.Stdout
	}

	started := time.Now()
	err := cmd.Run()
	s.logger.Debug("interpreter exited",
		"command", s.command[0],
		"duration", time.Since(started).String(),
		"error", err,
	)
	if err != nil {
		return s.failure(ctx, err)
	}

	if s.mode == Value {
		value := strings.TrimSpace(collected.String())
		if value == "" {
			return kernel.Unit()
		}
		return kernel.Value(value)
	}
	return kernel.Unit()
}

func (s *Subprocess) failure(ctx context.Context, err error) kernel.Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && s.timeout > 0 {
		return kernel.Failure(fmt.Sprintf("timed out after %s", s.timeout))
	}
	if ctx.Err() != nil {
		return kernel.Failure("interrupted")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return kernel.Failure(exitErr.Error())
	}
	return kernel.Failure(err.Error())
}

// continues reports whether the last non-blank line ends in a
// backslash line continuation.
func continues(code string) bool {
	trimmed := strings.TrimRight(code, " \t\r\n")
	return strings.HasSuffix(trimmed, `\`)
}
