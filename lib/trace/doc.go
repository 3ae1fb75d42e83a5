// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace records every message crossing a kernel connection to
// a CBOR transcript, and reads transcripts back.
//
// A [Recorder] is a kernel.Observer: pass it to kernel.Open and each
// decoded inbound message and each sent outbound message is appended
// as one [Record]. Heartbeat payloads are not messages and are not
// recorded. The file is a plain CBOR sequence, so a transcript cut
// short by a crash is readable up to the last complete record.
//
// bureau-kernel-trace prints transcripts.
package trace
