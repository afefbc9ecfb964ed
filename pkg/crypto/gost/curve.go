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

// Package gost adapts the GOST R 34.10-2012 (256-bit) elliptic curve, the
// GOST R 34.11-2012 (Streebog) hash, and GOST signatures to the small set of
// operations the threshold protocol needs.
//
// The curve uses the id-GostR3410-2001-CryptoPro-A parameter set. Its
// equation coefficient a equals p-3, so the generic short Weierstrass
// arithmetic in crypto/elliptic applies directly to the parameters provided
// by gogost.
//
// Example usage:
//
//	curve := gost.Default()
//	commitment := curve.ScalarBaseMult(coefficient)
//	wire := commitment.Hex()
//	parsed, err := curve.ParsePoint(wire)
package gost

import (
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"go.cypherpunks.ru/gogost/v5/gost3410"
)

const (
	// CurveName identifies the parameter set in stored records.
	CurveName = "id-GostR3410-2001-CryptoPro-A-ParamSet"

	// CoordinateSize is the byte length of one affine coordinate.
	CoordinateSize = 32

	// PointSize is the byte length of an encoded point (X||Y).
	PointSize = 2 * CoordinateSize

	// PointHexLen is the length of the hex wire form of a point.
	PointHexLen = 2 * PointSize
)

// Point is an affine point on the curve. The identity element is (0, 0).
type Point struct {
	X *big.Int
	Y *big.Int
}

// Curve provides group operations on the GOST 256-bit curve.
type Curve struct {
	params *elliptic.CurveParams
	gost   *gost3410.Curve
}

var (
	defaultCurve     *Curve
	defaultCurveOnce sync.Once
)

// Default returns the shared CryptoPro-A curve instance.
func Default() *Curve {
	defaultCurveOnce.Do(func() {
		defaultCurve = newCurve(gost3410.CurveIdGostR34102001CryptoProAParamSet())
	})
	return defaultCurve
}

func newCurve(c *gost3410.Curve) *Curve {
	return &Curve{
		params: &elliptic.CurveParams{
			P:       new(big.Int).Set(c.P),
			N:       new(big.Int).Set(c.Q),
			B:       new(big.Int).Set(c.B),
			Gx:      new(big.Int).Set(c.X),
			Gy:      new(big.Int).Set(c.Y),
			BitSize: 256,
			Name:    CurveName,
		},
		gost: c,
	}
}

// Name returns the parameter set name.
func (c *Curve) Name() string {
	return c.params.Name
}

// Order returns a copy of the prime order q of the base point.
func (c *Curve) Order() *big.Int {
	return new(big.Int).Set(c.params.N)
}

// Base returns the base point G.
func (c *Curve) Base() Point {
	return Point{X: new(big.Int).Set(c.params.Gx), Y: new(big.Int).Set(c.params.Gy)}
}

// Identity returns the point at infinity.
func (c *Curve) Identity() Point {
	return Point{X: new(big.Int), Y: new(big.Int)}
}

// ScalarBaseMult returns k*G. k is reduced modulo the group order.
func (c *Curve) ScalarBaseMult(k *big.Int) Point {
	x, y := c.params.ScalarBaseMult(c.reduce(k).Bytes())
	return Point{X: x, Y: y}
}

// ScalarMult returns k*P. k is reduced modulo the group order.
func (c *Curve) ScalarMult(p Point, k *big.Int) Point {
	if p.IsIdentity() {
		return c.Identity()
	}
	x, y := c.params.ScalarMult(p.X, p.Y, c.reduce(k).Bytes())
	return Point{X: x, Y: y}
}

// Add returns P+Q.
func (c *Curve) Add(p, q Point) Point {
	if p.IsIdentity() {
		return q.clone()
	}
	if q.IsIdentity() {
		return p.clone()
	}
	x, y := c.params.Add(p.X, p.Y, q.X, q.Y)
	return Point{X: x, Y: y}
}

// IsOnCurve reports whether p is a finite point satisfying the curve equation.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.X == nil || p.Y == nil || p.IsIdentity() {
		return false
	}
	if p.X.Sign() < 0 || p.Y.Sign() < 0 || p.X.Cmp(c.params.P) >= 0 || p.Y.Cmp(c.params.P) >= 0 {
		return false
	}
	return c.params.IsOnCurve(p.X, p.Y)
}

// ParsePoint decodes the fixed-width hex wire form of a point and checks
// that it lies on the curve.
func (c *Curve) ParsePoint(s string) (Point, error) {
	if len(s) != PointHexLen {
		return Point{}, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidPoint, PointHexLen, len(s))
	}
	if strings.ToLower(s) != s {
		return Point{}, fmt.Errorf("%w: hex must be lowercase", ErrInvalidPoint)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	p := Point{
		X: new(big.Int).SetBytes(raw[:CoordinateSize]),
		Y: new(big.Int).SetBytes(raw[CoordinateSize:]),
	}
	if !c.IsOnCurve(p) {
		return Point{}, fmt.Errorf("%w: point is not on %s", ErrInvalidPoint, c.Name())
	}
	return p, nil
}

// ParsePoints decodes a sequence of wire points, failing on the first invalid entry.
func (c *Curve) ParsePoints(in []string) ([]Point, error) {
	out := make([]Point, len(in))
	for i, s := range in {
		p, err := c.ParsePoint(s)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (c *Curve) reduce(k *big.Int) *big.Int {
	if k == nil {
		return new(big.Int)
	}
	return new(big.Int).Mod(k, c.params.N)
}

// IsIdentity reports whether p is the point at infinity.
func (p Point) IsIdentity() bool {
	return (p.X == nil || p.X.Sign() == 0) && (p.Y == nil || p.Y.Sign() == 0)
}

// Equal reports whether two points are the same group element.
func (p Point) Equal(q Point) bool {
	if p.IsIdentity() || q.IsIdentity() {
		return p.IsIdentity() && q.IsIdentity()
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Bytes returns the fixed-width X||Y encoding.
func (p Point) Bytes() []byte {
	out := make([]byte, PointSize)
	if p.IsIdentity() {
		return out
	}
	p.X.FillBytes(out[:CoordinateSize])
	p.Y.FillBytes(out[CoordinateSize:])
	return out
}

// Hex returns the lowercase fixed-width hex wire form.
func (p Point) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

func (p Point) clone() Point {
	if p.IsIdentity() {
		return Point{X: new(big.Int), Y: new(big.Int)}
	}
	return Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

// EncodePoints returns the hex wire form of each point.
func EncodePoints(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Hex()
	}
	return out
}
