// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultSignatureScheme is used when a connection file carries a key
// but no scheme.
const DefaultSignatureScheme = "hmac-sha256"

// hashFactories maps signature_scheme names onto hash constructors. The
// names follow the "hmac-<digest>" convention of connection files.
var hashFactories = map[string]func() hash.Hash{
	"hmac-md5":      md5.New,
	"hmac-sha1":     sha1.New,
	"hmac-sha224":   sha256.New224,
	"hmac-sha256":   sha256.New,
	"hmac-sha384":   sha512.New384,
	"hmac-sha512":   sha512.New,
	"hmac-sha3-256": sha3.New256,
	"hmac-sha3-512": sha3.New512,
	"hmac-blake2b": func() hash.Hash {
		// New512 only fails for keys longer than 64 bytes.
		h, _ := blake2b.New512(nil)
		return h
	},
	"hmac-blake2s": func() hash.Hash {
		h, _ := blake2s.New256(nil)
		return h
	},
}

// SupportedSchemes returns the accepted signature_scheme names, sorted.
func SupportedSchemes() []string {
	names := make([]string, 0, len(hashFactories))
	for name := range hashFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signer produces and checks hex HMAC digests over the four signed JSON
// frames of a message. The zero value and a Signer built from an empty
// key are disabled.
type Signer struct {
	scheme  string
	key     []byte
	newHash func() hash.Hash
}

// NewSigner returns a Signer for the given scheme and key. An empty key
// disables signing regardless of scheme. A non-empty key with an
// unknown scheme is an error.
func NewSigner(scheme, key string) (*Signer, error) {
	if key == "" {
		return &Signer{scheme: scheme}, nil
	}
	if scheme == "" {
		scheme = DefaultSignatureScheme
	}
	factory, ok := hashFactories[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
	return &Signer{scheme: scheme, key: []byte(key), newHash: factory}, nil
}

// Enabled reports whether signatures are produced and checked.
func (s *Signer) Enabled() bool {
	return s != nil && s.newHash != nil
}

// Scheme returns the configured signature scheme name.
func (s *Signer) Scheme() string {
	if s == nil {
		return ""
	}
	return s.scheme
}

// Sign returns the hex digest of parts, or "" when disabled.
func (s *Signer) Sign(parts ...[]byte) string {
	if !s.Enabled() {
		return ""
	}
	return hex.EncodeToString(s.digest(parts))
}

// Verify reports whether signature is the digest of parts. A disabled
// Signer accepts every signature, including an empty one.
func (s *Signer) Verify(signature []byte, parts ...[]byte) bool {
	if !s.Enabled() {
		return true
	}
	expected := make([]byte, hex.EncodedLen(s.newHash().Size()))
	hex.Encode(expected, s.digest(parts))
	return hmac.Equal(expected, signature)
}

func (s *Signer) digest(parts [][]byte) []byte {
	mac := hmac.New(s.newHash, s.key)
	for _, part := range parts {
		mac.Write(part)
	}
	return mac.Sum(nil)
}
