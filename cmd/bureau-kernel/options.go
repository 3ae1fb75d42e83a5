// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kernel/lib/config"
)

type options struct {
	connectionFile  string
	configFile      string
	logLevel        string
	tracePath       string
	showVersion     bool
	printKernelspec bool
}

// parseOptions parses args. It returns pflag.ErrHelp after printing
// usage for --help.
func parseOptions(args []string) (*options, error) {
	return parseOptionsTo(args, os.Stderr)
}

func parseOptionsTo(args []string, output io.Writer) (*options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("bureau-kernel", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&opts.connectionFile, "connection-file", "f", "", "path to the front-end's connection file (required)")
	flagSet.StringVar(&opts.configFile, "config", "", "settings file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "override the settings' log level (debug, info, warn, error)")
	flagSet.StringVar(&opts.tracePath, "trace", "", "append a CBOR message transcript to this file")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVar(&opts.printKernelspec, "print-kernelspec", false, "print kernel.json for this binary and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	return &opts, nil
}

// loadSettings reads the settings file, applies flag overrides, and
// validates the result.
func loadSettings(opts *options) (*config.Config, error) {
	var (
		settings *config.Config
		err      error
	)
	if opts.configFile != "" {
		settings, err = config.LoadFile(opts.configFile)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	}
	if opts.tracePath != "" {
		settings.Trace.Path = opts.tracePath
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}
