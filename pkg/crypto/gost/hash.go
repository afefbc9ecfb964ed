// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-dkg.
//
// go-dkg is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package gost

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"go.cypherpunks.ru/gogost/v5/gost34112012256"
)

// Hash algorithm names accepted by NewHasher.
const (
	HashStreebog256 = "streebog256"
	HashBLAKE3      = "blake3"
	HashSHA256      = "sha256"
)

// DigestSize is the output size of every Hasher.
const DigestSize = 32

// Hasher is a deterministic 256-bit digest.
type Hasher interface {
	// Name returns the algorithm identifier recorded next to stored digests.
	Name() string

	// Sum256 returns the digest of data.
	Sum256(data []byte) [DigestSize]byte
}

// NewHasher returns the Hasher registered under name.
// An empty name selects Streebog-256.
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", HashStreebog256:
		return Streebog256{}, nil
	case HashBLAKE3:
		return BLAKE3{}, nil
	case HashSHA256:
		return SHA256{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHash, name)
	}
}

// Streebog256 is GOST R 34.11-2012 with a 256-bit digest.
type Streebog256 struct{}

// Name implements Hasher.
func (Streebog256) Name() string { return HashStreebog256 }

// Sum256 implements Hasher.
func (Streebog256) Sum256(data []byte) [DigestSize]byte {
	h := gost34112012256.New()
	h.Write(data)
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// New returns a streaming Streebog-256 instance, for use with HKDF.
func (Streebog256) New() hash.Hash {
	return gost34112012256.New()
}

// BLAKE3 is the BLAKE3 hash truncated to 256 bits.
type BLAKE3 struct{}

// Name implements Hasher.
func (BLAKE3) Name() string { return HashBLAKE3 }

// Sum256 implements Hasher.
func (BLAKE3) Sum256(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}

// SHA256 is FIPS 180-4 SHA-256.
type SHA256 struct{}

// Name implements Hasher.
func (SHA256) Name() string { return HashSHA256 }

// Sum256 implements Hasher.
func (SHA256) Sum256(data []byte) [DigestSize]byte {
	return sha256.Sum256(data)
}

// HexDigest hashes data and returns the lowercase hex digest.
func HexDigest(h Hasher, data []byte) string {
	sum := h.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidDigestHex reports whether s is a lowercase hex encoded 32-byte digest.
func ValidDigestHex(s string) bool {
	if len(s) != 2*DigestSize || strings.ToLower(s) != s {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
