// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-kernel-trace prints a transcript written by bureau-kernel
// --trace, one message per line:
//
//	bureau-kernel-trace kernel.cbor
//	bureau-kernel-trace --type execute_request --role shell kernel.cbor
//
// --diagnose prints each record in CBOR diagnostic notation instead.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kernel/lib/codec"
	"github.com/bureau-foundation/kernel/lib/process"
	"github.com/bureau-foundation/kernel/lib/trace"
	"github.com/bureau-foundation/kernel/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

type filter struct {
	msgType string
	role    string
}

func (f filter) match(record trace.Record) bool {
	if f.msgType != "" && record.MsgType != f.msgType {
		return false
	}
	if f.role != "" && record.Role != f.role {
		return false
	}
	return true
}

func run(args []string, stdout io.Writer) error {
	var (
		only        filter
		diagnose    bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("bureau-kernel-trace", pflag.ContinueOnError)
	flagSet.StringVar(&only.msgType, "type", "", "only print records of this msg_type")
	flagSet.StringVar(&only.role, "role", "", "only print records on this channel (shell, iopub, stdin, control)")
	flagSet.BoolVar(&diagnose, "diagnose", false, "print CBOR diagnostic notation")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Fprintf(stdout, "bureau-kernel-trace %s\n", version.Info())
		return nil
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: bureau-kernel-trace [flags] <transcript>")
	}

	file, err := os.Open(flagSet.Arg(0))
	if err != nil {
		return err
	}
	defer file.Close()

	output := bufio.NewWriter(stdout)
	if err := printTranscript(file, output, only, diagnose); err != nil {
		output.Flush()
		return err
	}
	return output.Flush()
}

func printTranscript(input io.Reader, output io.Writer, only filter, diagnose bool) error {
	if diagnose {
		return printDiagnostics(input, output, only)
	}
	reader := trace.NewReader(input)
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !only.match(record) {
			continue
		}
		if _, err := fmt.Fprintln(output, record.String()); err != nil {
			return err
		}
	}
}

// printDiagnostics prints each record as stored, in CBOR diagnostic
// notation.
func printDiagnostics(input io.Reader, output io.Writer, only filter) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}
	for len(data) > 0 {
		notation, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return fmt.Errorf("reading transcript record: %w", err)
		}
		var record trace.Record
		if err := codec.Unmarshal(data[:len(data)-len(rest)], &record); err != nil {
			return fmt.Errorf("decoding transcript record: %w", err)
		}
		data = rest
		if !only.match(record) {
			continue
		}
		if _, err := fmt.Fprintln(output, notation); err != nil {
			return err
		}
	}
	return nil
}
