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

// Package ecies provides Elliptic Curve Integrated Encryption Scheme (ECIES)
// on the GOST 256-bit curve. Participants use it to encrypt the shares they
// send to each other; the coordinator only ever stores the ciphertext.
//
// ECIES combines:
//  1. ECDH for key agreement (ephemeral-static)
//  2. HKDF-Streebog256 for key derivation
//  3. AES-256-GCM for authenticated encryption
//
// The encryption format is:
//
//	[ephemeral_public_key || nonce || tag || ciphertext]
//
// Where:
//   - ephemeral_public_key: X||Y, 64 bytes
//   - nonce: 12 bytes (GCM standard)
//   - tag: 16 bytes (GCM authentication tag)
//   - ciphertext: variable length
package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/ecdh"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

const (
	// Key size for AES-256
	aesKeySize = 32

	// GCM nonce size (96 bits / 12 bytes is standard)
	nonceSize = 12

	// GCM tag size (128 bits / 16 bytes)
	tagSize = 16

	hkdfInfo = "dkg-share-ecies"
)

// Overhead is the number of bytes Encrypt adds to the plaintext.
const Overhead = gost.PointSize + nonceSize + tagSize

// Encrypt encrypts plaintext to the recipient's public key.
//
// The encryption process:
//  1. Generate an ephemeral key pair
//  2. Perform ECDH with the ephemeral private key and recipient's public key
//  3. Derive an AES-256 key using HKDF from the shared secret
//  4. Encrypt plaintext using AES-256-GCM
//  5. Return: ephemeral_public_key || nonce || tag || ciphertext
func Encrypt(random io.Reader, publicKey *gost.PublicKey, plaintext, aad []byte) ([]byte, error) {
	if random == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	if publicKey == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}
	if plaintext == nil {
		return nil, fmt.Errorf("plaintext cannot be nil")
	}

	ephemeralPriv, err := gost.Default().GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	sharedSecret, err := ecdh.DeriveSharedSecret(ephemeralPriv, publicKey)
	if err != nil {
		return nil, fmt.Errorf("ECDH failed: %w", err)
	}

	gcm, err := newGCM(sharedSecret)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM appends the tag to the ciphertext
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	ephemeralPubBytes := ephemeralPriv.Public().Point().Bytes()

	result := make([]byte, 0, len(ephemeralPubBytes)+nonceSize+tagSize+len(ciphertext))
	result = append(result, ephemeralPubBytes...)
	result = append(result, nonce...)
	result = append(result, tag...)
	result = append(result, ciphertext...)
	return result, nil
}

// Decrypt decrypts ECIES ciphertext using the recipient's private key.
func Decrypt(privateKey *gost.PrivateKey, ciphertext, aad []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if ciphertext == nil {
		return nil, fmt.Errorf("ciphertext cannot be nil")
	}
	if len(ciphertext) < Overhead {
		return nil, fmt.Errorf("ciphertext too short: got %d bytes, need at least %d",
			len(ciphertext), Overhead)
	}

	ephemeralPubBytes := ciphertext[:gost.PointSize]
	nonce := ciphertext[gost.PointSize : gost.PointSize+nonceSize]
	tag := ciphertext[gost.PointSize+nonceSize : Overhead]
	encryptedData := ciphertext[Overhead:]

	ephemeralPub, err := gost.Default().ParsePublicKey(hex.EncodeToString(ephemeralPubBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal ephemeral public key: %w", err)
	}

	sharedSecret, err := ecdh.DeriveSharedSecret(privateKey, ephemeralPub)
	if err != nil {
		return nil, fmt.Errorf("ECDH failed: %w", err)
	}

	gcm, err := newGCM(sharedSecret)
	if err != nil {
		return nil, err
	}

	fullCiphertext := make([]byte, 0, len(encryptedData)+tagSize)
	fullCiphertext = append(fullCiphertext, encryptedData...)
	fullCiphertext = append(fullCiphertext, tag...)

	plaintext, err := gcm.Open(nil, nonce, fullCiphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (authentication error): %w", err)
	}
	return plaintext, nil
}

func newGCM(sharedSecret []byte) (cipher.AEAD, error) {
	encKey, err := ecdh.DeriveKey(sharedSecret, nil, []byte(hkdfInfo), aesKeySize)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
