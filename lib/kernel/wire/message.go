// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Header identifies a message and its type.
type Header struct {
	MsgID    string `json:"msg_id"`
	MsgType  string `json:"msg_type"`
	Session  string `json:"session"`
	Username string `json:"username"`
	Version  string `json:"version"`
	Date     string `json:"date"`
}

// emptyObject is the encoding of an absent parent header, metadata, or
// content.
var emptyObject = json.RawMessage("{}")

// Message is the unit exchanged on a channel.
//
// ParentHeader, Metadata, and Content are kept as raw JSON so that a
// reply can carry its request's header byte-for-byte and a request's
// content can be echoed verbatim. Use DecodeContent and friends to read
// them as typed values.
type Message struct {
	// Identities are the routing frames that preceded the delimiter.
	// Replies carry their request's identities so the transport can
	// route them back to the originating client.
	Identities [][]byte

	Header       Header
	ParentHeader json.RawMessage
	Metadata     json.RawMessage
	Content      json.RawMessage

	// Buffers are binary frames that followed content.
	Buffers [][]byte

	// rawHeader holds the header exactly as received so that children
	// reproduce it without loss of unknown fields.
	rawHeader json.RawMessage
}

// Type returns the header msg_type.
func (m *Message) Type() MsgType {
	return MsgType(m.Header.MsgType)
}

// HeaderJSON returns the header encoding: the received bytes for an
// inbound message, a fresh encoding otherwise.
func (m *Message) HeaderJSON() (json.RawMessage, error) {
	if m.rawHeader != nil {
		return m.rawHeader, nil
	}
	data, err := json.Marshal(m.Header)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	return data, nil
}

// DecodeContent unmarshals Content into v. Absent content decodes as
// an empty object.
func (m *Message) DecodeContent(v any) error {
	return decodeObject(m.Content, v)
}

// DecodeMetadata unmarshals Metadata into v.
func (m *Message) DecodeMetadata(v any) error {
	return decodeObject(m.Metadata, v)
}

// Parent decodes ParentHeader. A message without a parent yields the
// zero Header.
func (m *Message) Parent() (Header, error) {
	var parent Header
	err := decodeObject(m.ParentHeader, &parent)
	return parent, err
}

func decodeObject(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = emptyObject
	}
	return json.Unmarshal(raw, v)
}

func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return emptyObject
	}
	return raw
}

// Composer builds outbound messages for one kernel session.
type Composer struct {
	// Session is the kernel's session id, written into every header.
	Session string
	// Username is written into every header.
	Username string
	// Now supplies header dates.
	Now func() time.Time
}

// NewComposer returns a Composer with a random session id.
func NewComposer(username string, now func() time.Time) *Composer {
	return &Composer{
		Session:  uuid.NewString(),
		Username: username,
		Now:      now,
	}
}

// Compose builds a message of msgType. When parent is non-nil the new
// message is its child: ParentHeader is the parent's header and the
// parent's identities are copied for routing. content and metadata may
// be nil (encoded as {}), a json.RawMessage (used verbatim), or any
// JSON-encodable value.
func (c *Composer) Compose(msgType MsgType, parent *Message, content, metadata any) (*Message, error) {
	contentJSON, err := encodeObject(content)
	if err != nil {
		return nil, fmt.Errorf("encoding %s content: %w", msgType, err)
	}
	metadataJSON, err := encodeObject(metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding %s metadata: %w", msgType, err)
	}

	message := &Message{
		Header: Header{
			MsgID:    uuid.NewString(),
			MsgType:  string(msgType),
			Session:  c.Session,
			Username: c.Username,
			Version:  ProtocolVersion,
			Date:     FormatDate(c.Now()),
		},
		ParentHeader: emptyObject,
		Metadata:     metadataJSON,
		Content:      contentJSON,
	}
	if parent != nil {
		parentJSON, err := parent.HeaderJSON()
		if err != nil {
			return nil, err
		}
		message.ParentHeader = parentJSON
		message.Identities = copyFrames(parent.Identities)
	}
	return message, nil
}

// Reply builds the reply to request: its type is the request's type
// with the _reply suffix.
func (c *Composer) Reply(request *Message, content, metadata any) (*Message, error) {
	return c.Compose(request.Type().ReplyType(), request, content, metadata)
}

// FormatDate renders t as ISO-8601 in UTC with microsecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}

func encodeObject(v any) (json.RawMessage, error) {
	switch value := v.(type) {
	case nil:
		return emptyObject, nil
	case json.RawMessage:
		return orEmpty(value), nil
	default:
		return json.Marshal(value)
	}
}

func copyFrames(frames [][]byte) [][]byte {
	if len(frames) == 0 {
		return nil
	}
	copied := make([][]byte, len(frames))
	for i, frame := range frames {
		copied[i] = append([]byte(nil), frame...)
	}
	return copied
}
