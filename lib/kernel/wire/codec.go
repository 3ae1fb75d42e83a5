// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"encoding/json"
)

// Delimiter separates routing identities from the signed message body.
const Delimiter = "<IDS|MSG>"

// signedFrameCount is signature + header + parent + metadata + content.
const signedFrameCount = 5

// Codec converts between a Message and its multipart frames, signing
// on the way out and verifying on the way in.
type Codec struct {
	signer *Signer
}

// NewCodec returns a Codec using signer. A nil signer disables signing.
func NewCodec(signer *Signer) *Codec {
	return &Codec{signer: signer}
}

// Encode frames a message for sending.
func (c *Codec) Encode(m *Message) ([][]byte, error) {
	header, err := m.HeaderJSON()
	if err != nil {
		return nil, err
	}
	parent := orEmpty(m.ParentHeader)
	metadata := orEmpty(m.Metadata)
	content := orEmpty(m.Content)

	signature := c.signer.Sign(header, parent, metadata, content)

	frames := make([][]byte, 0, len(m.Identities)+1+signedFrameCount+len(m.Buffers))
	frames = append(frames, m.Identities...)
	frames = append(frames,
		[]byte(Delimiter),
		[]byte(signature),
		header,
		parent,
		metadata,
		content,
	)
	frames = append(frames, m.Buffers...)
	return frames, nil
}

// Decode parses received frames. Any structural problem, signature
// mismatch, or invalid JSON is reported as a *ProtocolError.
func (c *Codec) Decode(frames [][]byte) (*Message, error) {
	delimiter := -1
	for i, frame := range frames {
		if bytes.Equal(frame, []byte(Delimiter)) {
			delimiter = i
			break
		}
	}
	if delimiter < 0 {
		return nil, protocolErrorf(nil, "missing %s delimiter in %d frames", Delimiter, len(frames))
	}
	body := frames[delimiter+1:]
	if len(body) < signedFrameCount {
		return nil, protocolErrorf(nil, "expected at least %d frames after delimiter, got %d", signedFrameCount, len(body))
	}

	signature, header, parent, metadata, content := body[0], body[1], body[2], body[3], body[4]
	if !c.signer.Verify(signature, header, parent, metadata, content) {
		return nil, protocolErrorf(nil, "signature mismatch")
	}

	message := &Message{
		Identities: copyFrames(frames[:delimiter]),
		rawHeader:  append(json.RawMessage(nil), header...),
	}
	if err := json.Unmarshal(header, &message.Header); err != nil {
		return nil, protocolErrorf(err, "decoding header")
	}
	if message.Header.MsgType == "" {
		return nil, protocolErrorf(nil, "header has no msg_type")
	}

	for _, part := range []struct {
		name string
		data []byte
		dest *json.RawMessage
	}{
		{"parent_header", parent, &message.ParentHeader},
		{"metadata", metadata, &message.Metadata},
		{"content", content, &message.Content},
	} {
		if len(part.data) == 0 {
			*part.dest = emptyObject
			continue
		}
		if !json.Valid(part.data) {
			return nil, protocolErrorf(nil, "%s is not valid JSON", part.name)
		}
		*part.dest = append(json.RawMessage(nil), part.data...)
	}

	if extra := body[signedFrameCount:]; len(extra) > 0 {
		message.Buffers = copyFrames(extra)
	}
	return message, nil
}
