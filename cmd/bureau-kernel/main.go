// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-kernel is a notebook kernel speaking the Jupyter messaging
// protocol over ZeroMQ. A front-end starts it with a connection file:
//
//	bureau-kernel -f /run/user/1000/jupyter/kernel-1234.json
//
// Shell executions run the configured interpreter once per request.
// Settings come from --config, then BUREAU_KERNEL_CONFIG, then built-in
// defaults (a POSIX shell streaming its output). --print-kernelspec
// writes the kernel.json a front-end needs to launch the binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kernel/lib/clock"
	"github.com/bureau-foundation/kernel/lib/config"
	"github.com/bureau-foundation/kernel/lib/evaluator"
	"github.com/bureau-foundation/kernel/lib/kernel"
	"github.com/bureau-foundation/kernel/lib/kernel/wire"
	"github.com/bureau-foundation/kernel/lib/process"
	"github.com/bureau-foundation/kernel/lib/trace"
	"github.com/bureau-foundation/kernel/lib/version"
	"github.com/bureau-foundation/kernel/lib/zmqsocket"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Printf("bureau-kernel %s\n", version.Info())
		return nil
	}

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if opts.printKernelspec {
		executable, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
		return writeKernelspec(os.Stdout, executable, settings)
	}

	if opts.connectionFile == "" {
		return errors.New("--connection-file is required")
	}

	level, err := config.ParseLogLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	connectionConfig, err := kernel.LoadConnectionFile(opts.connectionFile)
	if err != nil {
		return err
	}

	shellEvaluator, err := newEvaluator(settings, logger)
	if err != nil {
		return err
	}

	var observer kernel.Observer
	if settings.Trace.Path != "" {
		recorder, err := trace.Create(settings.Trace.Path, clock.Real(), logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Warn("closing transcript", "path", settings.Trace.Path, "error", err)
			}
		}()
		observer = recorder
	}

	binder, err := zmqsocket.New()
	if err != nil {
		return err
	}
	defer binder.Close()

	connection, err := kernel.Open(connectionConfig, binder, observer)
	if err != nil {
		return err
	}

	composer := wire.NewComposer("kernel", time.Now)
	dispatcher := kernel.NewDispatcher(kernel.DispatcherConfig{
		Info: kernel.KernelInfo{
			Implementation:        "bureau-kernel",
			ImplementationVersion: version.Short(),
			Language:              languageInfo(settings),
			Banner:                settings.Banner,
		},
		Ports:    connectionConfig.PortMap(),
		Composer: composer,
		Logger:   logger,
	})
	server := kernel.NewServer(kernel.ServerConfig{
		Connection:   connection,
		Dispatcher:   dispatcher,
		Publisher:    kernel.NewPublisher(connection.IOPub(), composer, logger),
		Evaluator:    shellEvaluator,
		PollInterval: settings.PollInterval,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("kernel running",
		"version", version.Short(),
		"session", composer.Session,
	)
	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("kernel stopped", "executions", server.Counter().Current())
	return nil
}

// newEvaluator builds the shell evaluator. It returns a nil Evaluator
// when no command is configured.
func newEvaluator(settings *config.Config, logger *slog.Logger) (kernel.Evaluator, error) {
	if len(settings.Evaluator.Command) == 0 {
		return nil, nil
	}
	subprocess, err := evaluator.NewSubprocess(evaluator.Config{
		Command:  settings.Evaluator.Command,
		Mode:     settings.Evaluator.Mode,
		Timeout:  settings.Evaluator.Timeout,
		Dir:      settings.Evaluator.WorkingDirectory,
		Env:      settings.Evaluator.Environment,
		Language: languageInfo(settings),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring evaluator: %w", err)
	}
	return subprocess, nil
}

func languageInfo(settings *config.Config) wire.LanguageInfo {
	return wire.LanguageInfo{
		Name:          settings.Language.Name,
		Version:       settings.Language.Version,
		Mimetype:      settings.Language.Mimetype,
		FileExtension: settings.Language.FileExtension,
	}
}
