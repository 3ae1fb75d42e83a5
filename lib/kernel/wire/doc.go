// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the structured message exchanged on kernel
// channels and its multipart framing.
//
// A message on the wire is a sequence of frames:
//
//	<identity>... "<IDS|MSG>" <signature> <header> <parent_header> <metadata> <content> <buffer>...
//
// Identity frames are routing prefixes added by the transport (one per
// hop for ROUTER sockets, a topic frame for broadcasts). The four JSON
// frames after the signature are covered by the HMAC signature. Any
// frames after content are opaque binary buffers.
//
// [Codec] turns frames into a [Message] and back, verifying and
// producing signatures with a [Signer]. A Signer built from an empty key
// is disabled: Sign returns an empty signature and Verify accepts
// anything. [Composer] builds outbound messages with a fresh msg_id and
// the parent header copied verbatim from the triggering request.
//
// Message types form a closed set (see [ClassifyRequest]); content
// schemas for each type are declared as Go structs in content.go and
// their JSON field names are part of the compatibility surface.
package wire
