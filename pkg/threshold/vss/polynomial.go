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

package vss

import (
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

// Point is one evaluation (x, f(x)) of a sharing polynomial.
type Point struct {
	X *big.Int
	Y *big.Int
}

// Polynomial is f(x) = a_0 + a_1 x + ... + a_d x^d over a prime field.
// Coefficients are ordered from the constant term upwards.
type Polynomial struct {
	field  *Field
	coeffs []*Scalar
}

// NewPolynomial builds a polynomial from existing coefficients.
func NewPolynomial(field *Field, coeffs []*Scalar) (*Polynomial, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: polynomial needs at least one coefficient", ErrInvalidThreshold)
	}
	out := make([]*Scalar, len(coeffs))
	for i, c := range coeffs {
		if c == nil || !c.field.Equal(field) {
			return nil, fmt.Errorf("coefficient %d: %w", i, ErrInvalidScalar)
		}
		out[i] = c
	}
	return &Polynomial{field: field, coeffs: out}, nil
}

// NewRandomPolynomial returns a polynomial of the given degree with random
// coefficients. A nil secret draws a random non-zero constant term.
func NewRandomPolynomial(field *Field, degree int, secret *Scalar, random io.Reader) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: negative degree %d", ErrInvalidThreshold, degree)
	}
	coeffs := make([]*Scalar, degree+1)
	if secret != nil {
		if !secret.field.Equal(field) {
			return nil, fmt.Errorf("secret: %w", ErrInvalidScalar)
		}
		coeffs[0] = secret
	} else {
		s, err := field.RandomNonZero(random)
		if err != nil {
			return nil, err
		}
		coeffs[0] = s
	}
	for i := 1; i <= degree; i++ {
		c, err := field.Random(random)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	return &Polynomial{field: field, coeffs: coeffs}, nil
}

// Degree returns the number of coefficients minus one.
func (p *Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Field returns the coefficient field.
func (p *Polynomial) Field() *Field {
	return p.field
}

// Secret returns the constant term.
func (p *Polynomial) Secret() *Scalar {
	return p.coeffs[0]
}

// Coefficients returns the coefficients from the constant term upwards.
func (p *Polynomial) Coefficients() []*Scalar {
	out := make([]*Scalar, len(p.coeffs))
	copy(out, p.coeffs)
	return out
}

// Evaluate computes f(x) by Horner's rule.
func (p *Polynomial) Evaluate(x *Scalar) *Scalar {
	acc := p.field.Zero()
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.coeffs[i])
	}
	return acc
}

// Share returns the evaluation at the participant index.
func (p *Polynomial) Share(index uint64) Point {
	x := p.field.ScalarFromUint64(index)
	return Point{X: x.Big(), Y: p.Evaluate(x).Big()}
}

// Commit returns the Feldman commitments to the coefficients.
func (p *Polynomial) Commit(curve *gost.Curve) []gost.Point {
	return GenerateCommitments(curve, p.coeffs)
}
