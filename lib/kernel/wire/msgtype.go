// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "strings"

// MsgType is the msg_type tag carried in a message header.
type MsgType string

// Request and reply types handled on shell and control.
const (
	KernelInfoRequest MsgType = "kernel_info_request"
	KernelInfoReply   MsgType = "kernel_info_reply"
	HistoryRequest    MsgType = "history_request"
	HistoryReply      MsgType = "history_reply"
	ShutdownRequest   MsgType = "shutdown_request"
	ShutdownReply     MsgType = "shutdown_reply"
	ConnectRequest    MsgType = "connect_request"
	ConnectReply      MsgType = "connect_reply"
	ExecuteRequest    MsgType = "execute_request"
	ExecuteReply      MsgType = "execute_reply"
	IsCompleteRequest MsgType = "is_complete_request"
	IsCompleteReply   MsgType = "is_complete_reply"

	// UnsupportedMessageReply answers any request whose type is not
	// in the set above, so that no request goes unanswered.
	UnsupportedMessageReply MsgType = "unsupported_message_reply"
)

// Broadcast types published on iopub. These are not replies and do not
// follow the _request/_reply naming.
const (
	Status        MsgType = "status"
	ExecuteInput  MsgType = "execute_input"
	ExecuteResult MsgType = "execute_result"
	Stream        MsgType = "stream"
)

// RequestKind is the closed set of request types the dispatcher
// understands. RequestUnknown is the explicit default arm.
type RequestKind int

const (
	RequestUnknown RequestKind = iota
	RequestKernelInfo
	RequestHistory
	RequestShutdown
	RequestConnect
	RequestExecute
	RequestIsComplete
)

var requestKinds = map[MsgType]RequestKind{
	KernelInfoRequest: RequestKernelInfo,
	HistoryRequest:    RequestHistory,
	ShutdownRequest:   RequestShutdown,
	ConnectRequest:    RequestConnect,
	ExecuteRequest:    RequestExecute,
	IsCompleteRequest: RequestIsComplete,
}

// ClassifyRequest maps a header msg_type onto the closed request set.
// Anything unrecognized, including broadcast and reply types sent by a
// confused client, is RequestUnknown.
func ClassifyRequest(msgType string) RequestKind {
	return requestKinds[MsgType(msgType)]
}

func (k RequestKind) String() string {
	switch k {
	case RequestKernelInfo:
		return string(KernelInfoRequest)
	case RequestHistory:
		return string(HistoryRequest)
	case RequestShutdown:
		return string(ShutdownRequest)
	case RequestConnect:
		return string(ConnectRequest)
	case RequestExecute:
		return string(ExecuteRequest)
	case RequestIsComplete:
		return string(IsCompleteRequest)
	default:
		return "unknown"
	}
}

// ReplyType returns the reply msg_type for a request type: the
// "_request" suffix replaced by "_reply". Types without the suffix get
// "_reply" appended.
func (t MsgType) ReplyType() MsgType {
	return MsgType(strings.TrimSuffix(string(t), "_request") + "_reply")
}
