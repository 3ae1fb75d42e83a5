// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package evaluator provides code evaluators for the kernel.
//
// [Subprocess] runs a configured interpreter once per execution with
// the submitted code on its stdin. In stream mode the interpreter's
// stdout is forwarded to the front-end as it is produced and the
// execution has no value; in value mode stdout is collected and
// becomes the execution value. stderr is always forwarded.
//
// Two inputs never reach the interpreter: blank code evaluates to no
// value, and code whose last line ends in a backslash continuation is
// reported as incomplete.
package evaluator
