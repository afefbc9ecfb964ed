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
	"math/big"
)

// ReconstructSecret interpolates f(0) from the supplied points. At least
// threshold points with distinct non-zero x-coordinates are required. The
// points are not modified.
func ReconstructSecret(field *Field, points []Point, threshold int) (*big.Int, error) {
	xs, ys, err := prepare(field, points, threshold)
	if err != nil {
		return nil, err
	}

	secret := field.Zero()
	for j := range xs {
		num := field.One()
		den := field.One()
		for m := range xs {
			if m == j {
				continue
			}
			num = num.Mul(xs[m])
			den = den.Mul(xs[m].Sub(xs[j]))
		}
		// den is non-zero: the x-coordinates are distinct.
		secret = secret.Add(ys[j].Mul(num).Mul(den.Inverse()))
	}
	return secret.Big(), nil
}

// LagrangeCoefficient returns the basis coefficient of x_j at zero for the
// given set of x-coordinates.
func LagrangeCoefficient(field *Field, xj *big.Int, xs []*big.Int) (*Scalar, error) {
	target := field.NewScalar(xj)
	num := field.One()
	den := field.One()
	found := false
	for _, x := range xs {
		xm := field.NewScalar(x)
		if xm.Equal(target) {
			if found {
				return nil, ErrDuplicateShareIndex
			}
			found = true
			continue
		}
		num = num.Mul(xm)
		den = den.Mul(xm.Sub(target))
	}
	if !found {
		return nil, fmt.Errorf("%w: x is not in the set", ErrInvalidShareIndex)
	}
	return num.Mul(den.Inverse()), nil
}

func prepare(field *Field, points []Point, threshold int) ([]*Scalar, []*Scalar, error) {
	if threshold < 1 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}
	if len(points) < threshold {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(points), threshold)
	}

	xs := make([]*Scalar, len(points))
	ys := make([]*Scalar, len(points))
	seen := make(map[string]int, len(points))
	for i, p := range points {
		if p.X == nil {
			return nil, nil, fmt.Errorf("point %d: %w", i, ErrInvalidShareIndex)
		}
		if p.Y == nil {
			return nil, nil, fmt.Errorf("point %d: %w", i, ErrInvalidShare)
		}
		x := field.NewScalar(p.X)
		if x.IsZero() {
			return nil, nil, fmt.Errorf("point %d: %w: x = 0", i, ErrInvalidShareIndex)
		}
		key := x.Hex()
		if prev, ok := seen[key]; ok {
			return nil, nil, fmt.Errorf("points %d and %d: %w", prev, i, ErrDuplicateShareIndex)
		}
		seen[key] = i
		xs[i] = x
		ys[i] = field.NewScalar(p.Y)
	}
	return xs, ys, nil
}
