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
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"go.cypherpunks.ru/gogost/v5/gost3410"
)

// SignatureSize is the byte length of a GOST R 34.10-2012 256-bit signature.
const SignatureSize = 64

// AlgorithmTag is recorded next to participant public keys.
const AlgorithmTag = "gost3410-2012-256"

// PrivateKey is a scalar in [1, q).
type PrivateKey struct {
	curve *Curve
	d     *big.Int
	pub   *PublicKey
}

// PublicKey is d*G for some private scalar d.
type PublicKey struct {
	curve *Curve
	point Point
}

// GenerateKey draws a uniformly random private key from random.
func (c *Curve) GenerateKey(random io.Reader) (*PrivateKey, error) {
	d, err := c.RandomScalar(random)
	if err != nil {
		return nil, err
	}
	return c.NewPrivateKey(d)
}

// RandomScalar returns a uniformly random non-zero scalar modulo the group order.
func (c *Curve) RandomScalar(random io.Reader) (*big.Int, error) {
	if random == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	buf := make([]byte, CoordinateSize+8)
	qMinusOne := new(big.Int).Sub(c.params.N, big.NewInt(1))
	if _, err := io.ReadFull(random, buf); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	// 64 extra bits make the modular bias negligible.
	k := new(big.Int).SetBytes(buf)
	k.Mod(k, qMinusOne)
	return k.Add(k, big.NewInt(1)), nil
}

// NewPrivateKey wraps an existing scalar.
func (c *Curve) NewPrivateKey(d *big.Int) (*PrivateKey, error) {
	if d == nil || d.Sign() <= 0 || d.Cmp(c.params.N) >= 0 {
		return nil, ErrInvalidKey
	}
	k := new(big.Int).Set(d)
	return &PrivateKey{
		curve: c,
		d:     k,
		pub:   &PublicKey{curve: c, point: c.ScalarBaseMult(k)},
	}, nil
}

// ParsePrivateKey decodes a 64-character hex scalar.
func (c *Curve) ParsePrivateKey(s string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != CoordinateSize {
		return nil, ErrInvalidKey
	}
	return c.NewPrivateKey(new(big.Int).SetBytes(raw))
}

// ParsePublicKey decodes the hex wire form of a public key point.
func (c *Curve) ParsePublicKey(s string) (*PublicKey, error) {
	p, err := c.ParsePoint(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &PublicKey{curve: c, point: p}, nil
}

// NewPublicKey wraps a validated curve point.
func (c *Curve) NewPublicKey(p Point) (*PublicKey, error) {
	if !c.IsOnCurve(p) {
		return nil, ErrInvalidKey
	}
	return &PublicKey{curve: c, point: p.clone()}, nil
}

// Scalar returns a copy of the private scalar.
func (k *PrivateKey) Scalar() *big.Int {
	return new(big.Int).Set(k.d)
}

// Hex returns the fixed-width hex encoding of the private scalar.
func (k *PrivateKey) Hex() string {
	buf := make([]byte, CoordinateSize)
	k.d.FillBytes(buf)
	return hex.EncodeToString(buf)
}

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey {
	return k.pub
}

// Sign produces a GOST R 34.10-2012 signature over Streebog256(message).
func (k *PrivateKey) Sign(random io.Reader, message []byte) ([]byte, error) {
	digest := Streebog256{}.Sum256(message)
	prv := &gost3410.PrivateKey{C: k.curve.gost, Key: new(big.Int).Set(k.d)}
	sig, err := prv.SignDigest(digest[:], random)
	if err != nil {
		return nil, fmt.Errorf("gost sign: %w", err)
	}
	return sig, nil
}

// Point returns the public point.
func (k *PublicKey) Point() Point {
	return k.point.clone()
}

// Hex returns the hex wire form of the public key.
func (k *PublicKey) Hex() string {
	return k.point.Hex()
}

// Verify checks a signature over Streebog256(message) and returns
// ErrSignatureInvalid when it does not verify.
func (k *PublicKey) Verify(message, signature []byte) error {
	if len(signature) != SignatureSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrSignatureInvalid, SignatureSize, len(signature))
	}
	digest := Streebog256{}.Sum256(message)
	pub := &gost3410.PublicKey{C: k.curve.gost, X: new(big.Int).Set(k.point.X), Y: new(big.Int).Set(k.point.Y)}
	ok, err := pub.VerifyDigest(digest[:], signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !ok {
		return ErrSignatureInvalid
	}
	return nil
}

// VerifyHex decodes a hex signature and verifies it.
func (k *PublicKey) VerifyHex(message []byte, signatureHex string) error {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrSignatureInvalid)
	}
	return k.Verify(message, sig)
}

// ECDH returns the x-coordinate of d*P, the raw shared secret used by ECIES.
func (k *PrivateKey) ECDH(peer *PublicKey) ([]byte, error) {
	if peer == nil {
		return nil, ErrInvalidKey
	}
	shared := k.curve.ScalarMult(peer.point, k.d)
	if shared.IsIdentity() {
		return nil, fmt.Errorf("ecdh produced the identity point")
	}
	out := make([]byte, CoordinateSize)
	shared.X.FillBytes(out)
	return out, nil
}
