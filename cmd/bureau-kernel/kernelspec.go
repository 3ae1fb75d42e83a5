// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bureau-foundation/kernel/lib/config"
)

// connectionFilePlaceholder is substituted by the front-end with the
// path of the connection file it writes.
const connectionFilePlaceholder = "{connection_file}"

type kernelspec struct {
	Argv        []string `json:"argv"`
	DisplayName string   `json:"display_name"`
	Language    string   `json:"language"`
}

func writeKernelspec(w io.Writer, executable string, settings *config.Config) error {
	document := kernelspec{
		Argv:        []string{executable, "-f", connectionFilePlaceholder},
		DisplayName: settings.Banner,
		Language:    settings.Language.Name,
	}
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding kernelspec: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
