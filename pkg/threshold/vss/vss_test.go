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
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewField(t *testing.T) {
	f, err := NewField(big.NewInt(101))
	require.NoError(t, err)
	assert.Equal(t, 1, f.ByteLen())
	assert.Equal(t, int64(101), f.Prime().Int64())

	for _, p := range []*big.Int{nil, big.NewInt(2), big.NewInt(100), big.NewInt(91)} {
		_, err := NewField(p)
		assert.ErrorIs(t, err, ErrInvalidModulus, "%v", p)
	}

	assert.Equal(t, 32, CurveOrderField().ByteLen())
	assert.Equal(t, 0, CurveOrderField().Prime().Cmp(gost.Default().Order()))
	assert.Equal(t, 66, GenericField().ByteLen())
	assert.Equal(t, 521, GenericField().Prime().BitLen())
}

func TestScalar_Arithmetic(t *testing.T) {
	f, err := NewField(big.NewInt(101))
	require.NoError(t, err)

	a := f.ScalarFromUint64(50)
	b := f.ScalarFromUint64(60)

	assert.Equal(t, int64(9), a.Add(b).Big().Int64())
	assert.Equal(t, int64(91), a.Sub(b).Big().Int64())
	assert.Equal(t, int64(3000%101), a.Mul(b).Big().Int64())
	assert.Equal(t, int64(51), a.Neg().Big().Int64())
	assert.True(t, a.Mul(a.Inverse()).Equal(f.One()))
	assert.True(t, f.NewScalar(big.NewInt(-1)).Equal(f.ScalarFromUint64(100)))
	assert.True(t, f.Zero().IsZero())
	assert.False(t, a.IsZero())
}

func TestScalar_HexRoundTrip(t *testing.T) {
	f := CurveOrderField()
	s, err := f.Random(rand.Reader)
	require.NoError(t, err)

	wire := s.Hex()
	assert.Len(t, wire, 2*f.ByteLen())
	parsed, err := f.ParseScalar(wire)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(s))

	_, err = f.ParseScalar("abcd")
	assert.ErrorIs(t, err, ErrInvalidScalar)

	buf := make([]byte, f.ByteLen())
	f.Prime().FillBytes(buf)
	_, err = f.ParseScalar(fmt.Sprintf("%x", buf))
	assert.ErrorIs(t, err, ErrInvalidScalar)
}

func TestPolynomial_Evaluate(t *testing.T) {
	f, err := NewField(big.NewInt(101))
	require.NoError(t, err)

	// f(x) = 3 + 2x + x^2
	p, err := NewPolynomial(f, []*Scalar{f.ScalarFromUint64(3), f.ScalarFromUint64(2), f.ScalarFromUint64(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Degree())

	assert.Equal(t, int64(3), p.Evaluate(f.Zero()).Big().Int64())
	assert.Equal(t, int64(6), p.Evaluate(f.ScalarFromUint64(1)).Big().Int64())
	assert.Equal(t, int64(18), p.Evaluate(f.ScalarFromUint64(3)).Big().Int64())
	assert.Equal(t, int64((3+20+100)%101), p.Share(10).Y.Int64())

	_, err = NewPolynomial(f, nil)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	_, err = NewPolynomial(f, []*Scalar{CurveOrderField().One()})
	assert.ErrorIs(t, err, ErrInvalidScalar)
}

func TestReconstructSecret_RandomizedThresholds(t *testing.T) {
	for _, field := range []*Field{CurveOrderField(), GenericField()} {
		for threshold := 2; threshold <= 10; threshold++ {
			t.Run(fmt.Sprintf("%d-bit/t=%d", field.Prime().BitLen(), threshold), func(t *testing.T) {
				poly, err := NewRandomPolynomial(field, threshold-1, nil, rand.Reader)
				require.NoError(t, err)

				total := threshold + 3
				all := make([]Point, total)
				for i := range all {
					all[i] = poly.Share(uint64(i + 1))
				}

				// any t-subset and the full set reconstruct the secret
				subset := make([]Point, len(all))
				copy(subset, all)
				mrand.Shuffle(len(subset), func(i, j int) { subset[i], subset[j] = subset[j], subset[i] })

				got, err := ReconstructSecret(field, subset[:threshold], threshold)
				require.NoError(t, err)
				assert.Equal(t, 0, got.Cmp(poly.Secret().Big()))

				got, err = ReconstructSecret(field, all, threshold)
				require.NoError(t, err)
				assert.Equal(t, 0, got.Cmp(poly.Secret().Big()))
			})
		}
	}
}

func TestReconstructSecret_Insufficient(t *testing.T) {
	field := CurveOrderField()
	poly, err := NewRandomPolynomial(field, 2, nil, rand.Reader)
	require.NoError(t, err)

	points := []Point{poly.Share(1), poly.Share(2)}
	before := []string{points[0].X.String(), points[0].Y.String(), points[1].X.String(), points[1].Y.String()}

	_, err = ReconstructSecret(field, points, 3)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	after := []string{points[0].X.String(), points[0].Y.String(), points[1].X.String(), points[1].Y.String()}
	assert.Equal(t, before, after)

	_, err = ReconstructSecret(field, nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	_, err = ReconstructSecret(field, points, 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestReconstructSecret_InvalidPoints(t *testing.T) {
	field := CurveOrderField()
	poly, err := NewRandomPolynomial(field, 1, nil, rand.Reader)
	require.NoError(t, err)
	a, b := poly.Share(1), poly.Share(2)

	_, err = ReconstructSecret(field, []Point{a, a}, 2)
	assert.ErrorIs(t, err, ErrDuplicateShareIndex)

	// x and x + p collide in the field
	wrapped := Point{X: new(big.Int).Add(a.X, field.Prime()), Y: a.Y}
	_, err = ReconstructSecret(field, []Point{a, wrapped}, 2)
	assert.ErrorIs(t, err, ErrDuplicateShareIndex)

	_, err = ReconstructSecret(field, []Point{{X: big.NewInt(0), Y: big.NewInt(1)}, b}, 2)
	assert.ErrorIs(t, err, ErrInvalidShareIndex)

	_, err = ReconstructSecret(field, []Point{{X: nil, Y: big.NewInt(1)}, b}, 2)
	assert.ErrorIs(t, err, ErrInvalidShareIndex)

	_, err = ReconstructSecret(field, []Point{{X: big.NewInt(3), Y: nil}, b}, 2)
	assert.ErrorIs(t, err, ErrInvalidShare)
}

func TestLagrangeCoefficient(t *testing.T) {
	field := CurveOrderField()
	poly, err := NewRandomPolynomial(field, 2, nil, rand.Reader)
	require.NoError(t, err)

	xs := []*big.Int{big.NewInt(1), big.NewInt(3), big.NewInt(5)}
	acc := field.Zero()
	for _, x := range xs {
		l, err := LagrangeCoefficient(field, x, xs)
		require.NoError(t, err)
		acc = acc.Add(l.Mul(poly.Evaluate(field.NewScalar(x))))
	}
	assert.True(t, acc.Equal(poly.Secret()))

	_, err = LagrangeCoefficient(field, big.NewInt(2), xs)
	assert.ErrorIs(t, err, ErrInvalidShareIndex)
	_, err = LagrangeCoefficient(field, big.NewInt(1), append(xs, big.NewInt(1)))
	assert.ErrorIs(t, err, ErrDuplicateShareIndex)
}

func TestVerifyShare(t *testing.T) {
	curve := gost.Default()
	field := CurveOrderField()
	poly, err := NewRandomPolynomial(field, 2, nil, rand.Reader)
	require.NoError(t, err)
	commitments := poly.Commit(curve)
	require.Len(t, commitments, 3)

	for index := uint64(1); index <= 5; index++ {
		share := poly.Share(index)
		assert.True(t, VerifyShare(curve, index, share.Y, commitments), "index %d", index)

		// off by one field element never verifies
		plusOne := field.NewScalar(share.Y).Add(field.One()).Big()
		minusOne := field.NewScalar(share.Y).Sub(field.One()).Big()
		assert.False(t, VerifyShare(curve, index, plusOne, commitments))
		assert.False(t, VerifyShare(curve, index, minusOne, commitments))

		// right share, wrong index
		assert.False(t, VerifyShare(curve, index+1, share.Y, commitments))
	}

	share := poly.Share(1)
	assert.False(t, VerifyShare(curve, 0, poly.Secret().Big(), commitments))
	assert.False(t, VerifyShare(curve, 1, share.Y, nil))
	assert.False(t, VerifyShare(curve, 1, nil, commitments))
	assert.False(t, VerifyShare(curve, 1, new(big.Int).Add(share.Y, curve.Order()), commitments))
	assert.False(t, VerifyShare(curve, 1, share.Y, []gost.Point{curve.Identity(), commitments[1], commitments[2]}))
}

func TestDistributedKeyGeneration(t *testing.T) {
	curve := gost.Default()
	field := CurveOrderField()
	const n, threshold = 5, 3

	polys := make([]*Polynomial, n)
	sets := make([][]gost.Point, n)
	for i := range polys {
		p, err := NewRandomPolynomial(field, threshold-1, nil, rand.Reader)
		require.NoError(t, err)
		polys[i] = p
		sets[i] = p.Commit(curve)
	}

	// each participant j sums the shares it received, verifying each one
	finalShares := make([]Point, n)
	for j := 1; j <= n; j++ {
		received := make([]*Scalar, 0, n)
		for i, p := range polys {
			s := p.Share(uint64(j))
			require.True(t, VerifyShare(curve, uint64(j), s.Y, sets[i]))
			received = append(received, field.NewScalar(s.Y))
		}
		finalShares[j-1] = Point{X: big.NewInt(int64(j)), Y: AggregateShares(field, received).Big()}
	}

	q, err := PublicKeyFromCommitments(curve, sets)
	require.NoError(t, err)

	aggregated, err := AggregateCommitments(curve, sets)
	require.NoError(t, err)
	assert.True(t, aggregated[0].Equal(q))
	for _, s := range finalShares {
		assert.True(t, VerifyShare(curve, s.X.Uint64(), s.Y, aggregated))
	}

	secret, err := ReconstructSecret(field, finalShares[1:4], threshold)
	require.NoError(t, err)
	assert.True(t, curve.ScalarBaseMult(secret).Equal(q))

	_, err = PublicKeyFromCommitments(curve, nil)
	assert.ErrorIs(t, err, ErrEmptyCommitments)
	_, err = AggregateCommitments(curve, [][]gost.Point{sets[0], sets[1][:2]})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}
