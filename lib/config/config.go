// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/kernel/lib/evaluator"
)

// EnvironmentVariable names the settings file when --config is absent.
const EnvironmentVariable = "BUREAU_KERNEL_CONFIG"

// Config holds the kernel's settings. Connection details (ports, key)
// are not here: they come from the connection file written by the
// front-end.
type Config struct {
	// PollInterval is the server loop's sleep between passes.
	PollInterval time.Duration `yaml:"poll_interval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Language is reported in kernel_info_reply unless the evaluator
	// describes itself.
	Language LanguageConfig `yaml:"language"`

	// Banner is reported in kernel_info_reply.
	Banner string `yaml:"banner"`

	// Evaluator configures the shell channel's evaluator.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Trace configures the optional message transcript.
	Trace TraceConfig `yaml:"trace"`
}

// LanguageConfig mirrors kernel_info_reply's language_info.
type LanguageConfig struct {
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	Mimetype      string `yaml:"mimetype"`
	FileExtension string `yaml:"file_extension"`
}

// EvaluatorConfig describes the interpreter each execution runs.
type EvaluatorConfig struct {
	// Command is the interpreter argv. Submitted code is written to
	// its stdin. Empty disables evaluation: shell executions then
	// render "no repl" like control executions.
	Command []string `yaml:"command"`

	// Mode is "stream" (forward stdout, report no value) or "value"
	// (report trimmed stdout as the execution value).
	Mode evaluator.Mode `yaml:"mode"`

	// Timeout bounds one execution. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	// WorkingDirectory is the interpreter's working directory.
	// Supports ${HOME} and ${VAR:-default} expansion.
	WorkingDirectory string `yaml:"working_directory"`

	// Environment is appended to the kernel's own environment as
	// KEY=VALUE entries.
	Environment []string `yaml:"environment"`
}

// TraceConfig configures the CBOR message transcript.
type TraceConfig struct {
	// Path is the transcript file. Empty disables tracing. Supports
	// ${HOME} and ${VAR:-default} expansion.
	Path string `yaml:"path"`
}

// Default returns the settings used when no file is given: a POSIX
// shell evaluator streaming its output.
func Default() *Config {
	return &Config{
		PollInterval: 10 * time.Millisecond,
		LogLevel:     "info",
		Language: LanguageConfig{
			Name:          "sh",
			Mimetype:      "text/x-sh",
			FileExtension: ".sh",
		},
		Banner: "Bureau kernel",
		Evaluator: EvaluatorConfig{
			Command: []string{"/bin/sh"},
			Mode:    evaluator.Stream,
			Timeout: 0,
		},
	}
}

// Load reads the file named by BUREAU_KERNEL_CONFIG, or returns
// Default() when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads settings from path over Default(). Fields absent from
// the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings over Default() and expands variables.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Evaluator.WorkingDirectory = expandVars(c.Evaluator.WorkingDirectory)
	c.Trace.Path = expandVars(c.Trace.Path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLogLevel maps a level name onto a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	level, ok := logLevels[name]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", name)
	}
	return level, nil
}

// Validate checks the settings and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Language.Name == "" {
		errs = append(errs, errors.New("language.name is required"))
	}

	modes := []evaluator.Mode{evaluator.Stream, evaluator.Value}
	if !slices.Contains(modes, c.Evaluator.Mode) {
		errs = append(errs, fmt.Errorf("evaluator.mode must be one of: %v", modes))
	}
	if c.Evaluator.Timeout < 0 {
		errs = append(errs, fmt.Errorf("evaluator.timeout must not be negative, got %s", c.Evaluator.Timeout))
	}
	if len(c.Evaluator.Command) > 0 && c.Evaluator.Command[0] == "" {
		errs = append(errs, errors.New("evaluator.command[0] is empty"))
	}

	return errors.Join(errs...)
}
