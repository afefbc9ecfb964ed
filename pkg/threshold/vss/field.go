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

// Package vss implements Feldman verifiable secret sharing on the GOST
// 256-bit curve: prime field arithmetic, secret polynomials, public
// coefficient commitments, share verification, and Lagrange reconstruction.
//
// Field arithmetic is performed with saferith's constant-time natural
// numbers. Values cross package boundaries as *big.Int or fixed-width hex.
//
// Example usage:
//
//	field := vss.CurveOrderField()
//	poly, _ := vss.NewRandomPolynomial(field, threshold-1, nil, rand.Reader)
//	commitments := poly.Commit(gost.Default())
//	share := poly.Share(3)
//	ok := vss.VerifyShare(gost.Default(), 3, share.Y, commitments)
package vss

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

// Field is the prime field GF(p).
type Field struct {
	prime   *big.Int
	modulus *saferith.Modulus
	bits    int
	byteLen int
}

var (
	curveOrderField     *Field
	curveOrderFieldOnce sync.Once

	genericField     *Field
	genericFieldOnce sync.Once
)

// NewField returns the field of integers modulo the odd prime p.
func NewField(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(2)) <= 0 || p.Bit(0) == 0 || !p.ProbablyPrime(32) {
		return nil, ErrInvalidModulus
	}
	prime := new(big.Int).Set(p)
	return &Field{
		prime:   prime,
		modulus: saferith.ModulusFromBytes(prime.Bytes()),
		bits:    prime.BitLen(),
		byteLen: (prime.BitLen() + 7) / 8,
	}, nil
}

// CurveOrderField returns the scalar field of the GOST curve group.
func CurveOrderField() *Field {
	curveOrderFieldOnce.Do(func() {
		curveOrderField = mustField(gost.Default().Order())
	})
	return curveOrderField
}

// GenericField returns GF(2^521 - 1), used for dealer sharing of arbitrary
// byte secrets up to 65 bytes.
func GenericField() *Field {
	genericFieldOnce.Do(func() {
		p := new(big.Int).Lsh(big.NewInt(1), 521)
		genericField = mustField(p.Sub(p, big.NewInt(1)))
	})
	return genericField
}

func mustField(p *big.Int) *Field {
	f, err := NewField(p)
	if err != nil {
		panic(fmt.Sprintf("vss: %v", err))
	}
	return f
}

// Prime returns a copy of the field modulus.
func (f *Field) Prime() *big.Int {
	return new(big.Int).Set(f.prime)
}

// ByteLen returns the fixed byte width of an encoded element.
func (f *Field) ByteLen() int {
	return f.byteLen
}

// Equal reports whether two fields share a modulus.
func (f *Field) Equal(other *Field) bool {
	return other != nil && f.prime.Cmp(other.prime) == 0
}

// NewScalar reduces v modulo p.
func (f *Field) NewScalar(v *big.Int) *Scalar {
	if v == nil {
		return f.Zero()
	}
	r := new(big.Int).Mod(v, f.prime)
	return &Scalar{field: f, n: new(saferith.Nat).SetBig(r, f.bits)}
}

// ScalarFromUint64 returns v mod p.
func (f *Field) ScalarFromUint64(v uint64) *Scalar {
	n := new(saferith.Nat).SetUint64(v)
	return &Scalar{field: f, n: new(saferith.Nat).Mod(n, f.modulus)}
}

// Zero returns the additive identity.
func (f *Field) Zero() *Scalar {
	return f.ScalarFromUint64(0)
}

// One returns the multiplicative identity.
func (f *Field) One() *Scalar {
	return f.ScalarFromUint64(1)
}

// Random returns a uniformly distributed element.
func (f *Field) Random(random io.Reader) (*Scalar, error) {
	if random == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	buf := make([]byte, f.byteLen+16)
	if _, err := io.ReadFull(random, buf); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return f.NewScalar(new(big.Int).SetBytes(buf)), nil
}

// RandomNonZero returns a uniformly distributed non-zero element.
func (f *Field) RandomNonZero(random io.Reader) (*Scalar, error) {
	for {
		s, err := f.Random(random)
		if err != nil {
			return nil, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
}

// ParseScalar decodes fixed-width lowercase hex and requires the value to be
// below the modulus.
func (f *Field) ParseScalar(s string) (*Scalar, error) {
	if len(s) != 2*f.byteLen || strings.ToLower(s) != s {
		return nil, fmt.Errorf("%w: expected %d lowercase hex characters", ErrInvalidScalar, 2*f.byteLen)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(f.prime) >= 0 {
		return nil, fmt.Errorf("%w: value exceeds field modulus", ErrInvalidScalar)
	}
	return f.NewScalar(v), nil
}

// Contains reports whether v is a reduced element of the field.
func (f *Field) Contains(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(f.prime) < 0
}

// Scalar is an immutable reduced field element.
type Scalar struct {
	field *Field
	n     *saferith.Nat
}

// Field returns the field the scalar belongs to.
func (s *Scalar) Field() *Field {
	return s.field
}

// Add returns s + o.
func (s *Scalar) Add(o *Scalar) *Scalar {
	return &Scalar{field: s.field, n: new(saferith.Nat).ModAdd(s.n, o.n, s.field.modulus)}
}

// Sub returns s - o.
func (s *Scalar) Sub(o *Scalar) *Scalar {
	return &Scalar{field: s.field, n: new(saferith.Nat).ModSub(s.n, o.n, s.field.modulus)}
}

// Mul returns s * o.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	return &Scalar{field: s.field, n: new(saferith.Nat).ModMul(s.n, o.n, s.field.modulus)}
}

// Neg returns -s.
func (s *Scalar) Neg() *Scalar {
	return &Scalar{field: s.field, n: new(saferith.Nat).ModNeg(s.n, s.field.modulus)}
}

// Inverse returns s^-1. The caller must ensure s is non-zero.
func (s *Scalar) Inverse() *Scalar {
	return &Scalar{field: s.field, n: new(saferith.Nat).ModInverse(s.n, s.field.modulus)}
}

// IsZero reports whether s is the additive identity.
func (s *Scalar) IsZero() bool {
	return s.n.EqZero() == 1
}

// Equal reports whether s and o are the same element.
func (s *Scalar) Equal(o *Scalar) bool {
	return o != nil && s.Big().Cmp(o.Big()) == 0
}

// Big returns the element as a new big.Int.
func (s *Scalar) Big() *big.Int {
	return s.n.Big()
}

// Bytes returns the fixed-width big-endian encoding.
func (s *Scalar) Bytes() []byte {
	out := make([]byte, s.field.byteLen)
	s.Big().FillBytes(out)
	return out
}

// Hex returns the fixed-width lowercase hex encoding.
func (s *Scalar) Hex() string {
	return hex.EncodeToString(s.Bytes())
}

// String implements fmt.Stringer.
func (s *Scalar) String() string {
	return s.Hex()
}
