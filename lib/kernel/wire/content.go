// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// ProtocolVersion is the messaging protocol version this kernel speaks.
// It is written into every outbound header and into kernel_info_reply.
const ProtocolVersion = "5.3"

// Execution states carried by status broadcasts.
const (
	StateStarting = "starting"
	StateBusy     = "busy"
	StateIdle     = "idle"
)

// StatusOK is the status value of every successful reply.
const StatusOK = "ok"

// MimeTextPlain is the only MIME bundle key execute_result uses.
const MimeTextPlain = "text/plain"

// StatusContent is the content of a status broadcast.
type StatusContent struct {
	ExecutionState string `json:"execution_state"`
}

// ExecuteRequestContent is the content of an execute_request. Only Code
// drives behavior; the remaining fields are decoded so that callers can
// log them.
type ExecuteRequestContent struct {
	Code            string         `json:"code"`
	Silent          bool           `json:"silent"`
	StoreHistory    bool           `json:"store_history"`
	UserExpressions map[string]any `json:"user_expressions"`
	AllowStdin      bool           `json:"allow_stdin"`
	StopOnError     bool           `json:"stop_on_error"`
}

// ExecuteInputContent echoes submitted code on iopub.
type ExecuteInputContent struct {
	ExecutionCount int    `json:"execution_count"`
	Code           string `json:"code"`
}

// ExecuteResultContent carries the rendered evaluation result.
type ExecuteResultContent struct {
	ExecutionCount int               `json:"execution_count"`
	Data           map[string]string `json:"data"`
	Metadata       map[string]any    `json:"metadata"`
}

// ExecuteReplyContent is the content of execute_reply.
type ExecuteReplyContent struct {
	Status          string         `json:"status"`
	ExecutionCount  int            `json:"execution_count"`
	UserVariables   map[string]any `json:"user_variables"`
	Payload         []any          `json:"payload"`
	UserExpressions map[string]any `json:"user_expressions"`
}

// ExecuteReplyMetadata is the metadata of execute_reply.
type ExecuteReplyMetadata struct {
	DependenciesMet bool   `json:"dependencies_met"`
	Engine          string `json:"engine"`
	Status          string `json:"status"`
	Started         string `json:"started"`
}

// StreamContent carries a chunk of evaluator output.
type StreamContent struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Stream names.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// LanguageInfo describes the language the kernel evaluates.
type LanguageInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Mimetype      string `json:"mimetype"`
	FileExtension string `json:"file_extension"`
}

// KernelInfoReplyContent is the content of kernel_info_reply.
type KernelInfoReplyContent struct {
	Status                string       `json:"status"`
	ProtocolVersion       string       `json:"protocol_version"`
	Implementation        string       `json:"implementation"`
	ImplementationVersion string       `json:"implementation_version"`
	LanguageInfo          LanguageInfo `json:"language_info"`
	Banner                string       `json:"banner"`
	HelpLinks             []any        `json:"help_links"`
}

// HistoryReplyContent is the content of history_reply. History is
// always empty: execution history is not retained.
type HistoryReplyContent struct {
	Status  string `json:"status"`
	History []any  `json:"history"`
}

// IsCompleteReplyContent is the content of is_complete_reply.
type IsCompleteReplyContent struct {
	Status string `json:"status"`
}

// IsCompleteComplete is the only completeness status reported.
const IsCompleteComplete = "complete"
