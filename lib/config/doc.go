// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the kernel's YAML settings.
//
// Settings are read from one file named by the --config flag (via
// [LoadFile]) or the BUREAU_KERNEL_CONFIG environment variable (via
// [Load]). Without either, [Default] applies: a /bin/sh evaluator in
// stream mode. There is no search path and no per-field environment
// override.
//
// The connection file (ports, transport, signing key) is separate and
// is parsed by lib/kernel; this package only covers what the front-end
// does not dictate: poll interval, log level, language identity,
// banner, evaluator command, and transcript path.
//
// ${HOME} and ${VAR:-default} are expanded in path fields after
// loading.
package config
