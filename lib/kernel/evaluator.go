// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Output receives what an evaluation prints. Writes become iopub
// stream messages in the order they are made.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Evaluator runs submitted code. Evaluate must finish writing to
// output before it returns. Evaluation failures are reported as an
// Error result, never as a panic or Go error.
type Evaluator interface {
	Evaluate(ctx context.Context, code string, output Output) Result
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, code string, output Output) Result

func (f EvaluatorFunc) Evaluate(ctx context.Context, code string, output Output) Result {
	return f(ctx, code, output)
}

// LanguageReporter is implemented by evaluators that can describe the
// language they evaluate. kernel_info_reply prefers it over the
// configured language identity.
type LanguageReporter interface {
	LanguageInfo() wire.LanguageInfo
}

// ResultKind classifies the outcome of one execution.
type ResultKind int

const (
	// ResultUnit is a successful evaluation with nothing to show.
	ResultUnit ResultKind = iota
	// ResultValue is a successful evaluation with a printable value.
	ResultValue
	// ResultError is a failed evaluation.
	ResultError
	// ResultIncomplete means the code needs more input.
	ResultIncomplete
	// ResultNoEvaluator means no evaluator was available, as on the
	// control channel.
	ResultNoEvaluator
)

func (k ResultKind) String() string {
	switch k {
	case ResultUnit:
		return "unit"
	case ResultValue:
		return "value"
	case ResultError:
		return "error"
	case ResultIncomplete:
		return "incomplete"
	case ResultNoEvaluator:
		return "no_evaluator"
	default:
		return fmt.Sprintf("result(%d)", int(k))
	}
}

// Result is the outcome of one execution. Text is the rendered value
// for ResultValue and the error message for ResultError.
type Result struct {
	Kind ResultKind
	Text string
}

// Value returns a value result rendering as text.
func Value(text string) Result { return Result{Kind: ResultValue, Text: text} }

// Unit returns a result with no value.
func Unit() Result { return Result{Kind: ResultUnit} }

// Failure returns an error result carrying message.
func Failure(message string) Result { return Result{Kind: ResultError, Text: message} }

// Incomplete returns a result asking for more input.
func Incomplete() Result { return Result{Kind: ResultIncomplete} }

// NoEvaluator returns the result used when no evaluator is attached.
func NoEvaluator() Result { return Result{Kind: ResultNoEvaluator} }

// Render returns the text/plain representation published in
// execute_result.
func (r Result) Render() string {
	switch r.Kind {
	case ResultValue:
		return r.Text
	case ResultUnit:
		return "Ok"
	case ResultError:
		return "Error: " + r.Text
	case ResultIncomplete:
		return "..."
	case ResultNoEvaluator:
		return "no repl"
	default:
		return fmt.Sprintf("unknown result %s", r.Kind)
	}
}

// evaluate runs code through evaluator, which may be nil. A panicking
// evaluator yields an Error result.
func evaluate(ctx context.Context, evaluator Evaluator, code string, output Output) (result Result) {
	if evaluator == nil {
		return NoEvaluator()
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			result = Failure(fmt.Sprintf("evaluator panic: %v", recovered))
		}
	}()
	return evaluator.Evaluate(ctx, code, output)
}
