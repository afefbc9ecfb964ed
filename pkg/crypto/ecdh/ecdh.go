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

// Package ecdh provides Elliptic Curve Diffie-Hellman key agreement on the
// GOST R 34.10-2012 256-bit curve, with HKDF over Streebog-256 for deriving
// symmetric keys from the shared secret.
//
// Example usage:
//
//	curve := gost.Default()
//	alice, _ := curve.GenerateKey(rand.Reader)
//	bob, _ := curve.GenerateKey(rand.Reader)
//
//	aliceSecret, _ := ecdh.DeriveSharedSecret(alice, bob.Public())
//	bobSecret, _ := ecdh.DeriveSharedSecret(bob, alice.Public())
//
//	// aliceSecret == bobSecret
//	encKey, _ := ecdh.DeriveKey(aliceSecret, nil, []byte("encryption"), 32)
package ecdh

import (
	"fmt"
	"io"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"golang.org/x/crypto/hkdf"
)

// DeriveSharedSecret performs ECDH key agreement between a private key and
// a public key, returning the 32-byte x-coordinate of the shared point.
//
// For actual encryption keys, use DeriveKey() with the returned shared secret.
func DeriveSharedSecret(privateKey *gost.PrivateKey, publicKey *gost.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if publicKey == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}

	sharedSecret, err := privateKey.ECDH(publicKey)
	if err != nil {
		return nil, fmt.Errorf("ECDH operation failed: %w", err)
	}
	return sharedSecret, nil
}

// DeriveKey derives a key of the specified length from a shared secret using
// HKDF-Streebog256.
//
// Parameters:
//   - sharedSecret: The raw shared secret from ECDH
//   - salt: Optional salt value (can be nil)
//   - info: Context-specific information (e.g., "encryption", "mac")
//   - keyLength: Desired output key length in bytes
func DeriveKey(sharedSecret, salt, info []byte, keyLength int) ([]byte, error) {
	if sharedSecret == nil {
		return nil, fmt.Errorf("shared secret cannot be nil")
	}
	if keyLength <= 0 {
		return nil, fmt.Errorf("key length must be positive, got %d", keyLength)
	}

	hkdfReader := hkdf.New(gost.Streebog256{}.New, sharedSecret, salt, info)

	derivedKey := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, fmt.Errorf("HKDF derivation failed: %w", err)
	}
	return derivedKey, nil
}
