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
	"math/big"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

// GenerateCommitments returns C_i = a_i * G for each coefficient.
func GenerateCommitments(curve *gost.Curve, coeffs []*Scalar) []gost.Point {
	out := make([]gost.Point, len(coeffs))
	for i, c := range coeffs {
		out[i] = curve.ScalarBaseMult(c.Big())
	}
	return out
}

// EvaluateCommitments returns sum_i C_i * index^i, the public image of the
// share held by index.
func EvaluateCommitments(curve *gost.Curve, index uint64, commitments []gost.Point) gost.Point {
	q := curve.Order()
	x := new(big.Int).SetUint64(index)
	power := big.NewInt(1)
	acc := curve.Identity()
	for _, c := range commitments {
		acc = curve.Add(acc, curve.ScalarMult(c, power))
		power = new(big.Int).Mod(new(big.Int).Mul(power, x), q)
	}
	return acc
}

// VerifyShare reports whether share * G equals the commitment evaluation at
// index. Indices of zero, out-of-range shares, and empty or off-curve
// commitments never verify.
func VerifyShare(curve *gost.Curve, index uint64, share *big.Int, commitments []gost.Point) bool {
	if index == 0 || len(commitments) == 0 {
		return false
	}
	if share == nil || share.Sign() < 0 || share.Cmp(curve.Order()) >= 0 {
		return false
	}
	for _, c := range commitments {
		if !curve.IsOnCurve(c) {
			return false
		}
	}
	return curve.ScalarBaseMult(share).Equal(EvaluateCommitments(curve, index, commitments))
}

// PublicKeyFromCommitments returns Q = sum_j C_{j,0}, the group public key
// of a DKG whose participants published the given commitment sets.
func PublicKeyFromCommitments(curve *gost.Curve, sets [][]gost.Point) (gost.Point, error) {
	if len(sets) == 0 {
		return gost.Point{}, ErrEmptyCommitments
	}
	q := curve.Identity()
	for _, set := range sets {
		if len(set) == 0 {
			return gost.Point{}, ErrEmptyCommitments
		}
		q = curve.Add(q, set[0])
	}
	return q, nil
}

// AggregateCommitments sums commitment sets coefficient-wise. The result
// commits to the sum of all participants' polynomials.
func AggregateCommitments(curve *gost.Curve, sets [][]gost.Point) ([]gost.Point, error) {
	if len(sets) == 0 || len(sets[0]) == 0 {
		return nil, ErrEmptyCommitments
	}
	width := len(sets[0])
	out := make([]gost.Point, width)
	for i := range out {
		out[i] = curve.Identity()
	}
	for _, set := range sets {
		if len(set) != width {
			return nil, ErrInvalidThreshold
		}
		for i, c := range set {
			out[i] = curve.Add(out[i], c)
		}
	}
	return out, nil
}

// AggregateShares sums the shares a participant received from every dealer.
func AggregateShares(field *Field, shares []*Scalar) *Scalar {
	acc := field.Zero()
	for _, s := range shares {
		acc = acc.Add(s)
	}
	return acc
}
