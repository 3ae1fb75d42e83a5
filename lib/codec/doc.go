// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the kernel's CBOR configuration.
//
// The wire protocol itself is JSON. CBOR is used only for the message
// transcript written by lib/trace, where a compact self-delimiting
// sequence of records suits an append-only file. Encoding is
// deterministic so identical records produce identical bytes.
//
//	encoder := codec.NewEncoder(file)
//	err := encoder.Encode(record)
//
//	decoder := codec.NewDecoder(file)
//	err := decoder.Decode(&record)
//
// Types serialized only as CBOR use `cbor` struct tags.
package codec
