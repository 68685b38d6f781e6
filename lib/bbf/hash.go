// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest. All BBF hashes (asset content,
// asset region, index block) are this size. The algorithm identity is
// implicit in the format version; changing it is a format break.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes produce different digests
// in different contexts, preventing cross-domain collisions. The byte
// values are the ASCII encoding of the domain name, zero-padded to 32
// bytes, so the keys are inspectable in hex dumps (BLAKE3 keyed mode
// treats the key as an opaque 32-byte value either way).
type domainKey [32]byte

var (
	assetDomainKey = domainKey{
		'b', 'o', 'u', 'n', 'd', 'b', 'o', 'o', 'k', '.',
		'a', 's', 's', 'e', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	regionDomainKey = domainKey{
		'b', 'o', 'u', 'n', 'd', 'b', 'o', 'o', 'k', '.',
		'r', 'e', 'g', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	indexDomainKey = domainKey{
		'b', 'o', 'u', 'n', 'd', 'b', 'o', 'o', 'k', '.',
		'i', 'n', 'd', 'e', 'x', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// hasher is a streaming digest over one hash domain. It implements
// io.Writer so asset bytes can be copied through it.
type hasher struct {
	inner *blake3.Hasher
}

// newHasher creates a keyed hasher for the given domain.
func newHasher(key domainKey) *hasher {
	inner, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails for a wrong key length, which the
		// fixed-size domainKey type rules out.
		panic("bbf: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return &hasher{inner: inner}
}

func (h *hasher) Write(p []byte) (int, error) {
	return h.inner.Write(p)
}

// Sum returns the 32-byte digest of everything written so far.
func (h *hasher) Sum() Digest {
	var digest Digest
	copy(digest[:], h.inner.Sum(nil))
	return digest
}

// HashAsset computes the asset-domain digest of the literal asset
// bytes. This is the content hash stored in the asset table and
// checked by Reader.VerifyAsset.
func HashAsset(data []byte) Digest {
	h := newHasher(assetDomainKey)
	h.Write(data)
	return h.Sum()
}

// FormatDigest returns the hex encoding of a digest. This is the
// canonical format used in CLI output and manifests.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
