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

// Package shamir implements dealer-style Shamir's Secret Sharing for splitting
// byte secrets into N shares where any M shares can reconstruct the original.
//
// Secrets are cut into 64-byte blocks and each block is shared independently
// over GF(2^521 - 1) using the vss package. A share's Value is the
// concatenation of its fixed-width block evaluations, hex encoded.
package shamir

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// BlockSize is the number of secret bytes carried by one field element.
const BlockSize = 64

// blockMarker is prepended to every block so leading zero bytes survive the
// round trip through an integer.
const blockMarker = 0x01

// Split divides a secret into N shares where any M shares can reconstruct it.
//
// Parameters:
//   - secret: The secret data to split
//   - threshold: Minimum number of shares needed to reconstruct (M)
//   - total: Total number of shares to create (N)
//
// Example:
//
//	secret := []byte("my secret key")
//	shares, err := shamir.Split(secret, 3, 5)
//	// Creates 5 shares, any 3 can reconstruct the secret
func Split(secret []byte, threshold, total int) ([]*Share, error) {
	return SplitWithReader(rand.Reader, secret, threshold, total)
}

// SplitWithReader is Split with an explicit randomness source.
func SplitWithReader(random io.Reader, secret []byte, threshold, total int) ([]*Share, error) {
	if threshold < 2 {
		return nil, fmt.Errorf("threshold must be at least 2, got %d", threshold)
	}
	if total < threshold {
		return nil, fmt.Errorf("total shares (%d) must be >= threshold (%d)", total, threshold)
	}
	if threshold > 255 {
		return nil, fmt.Errorf("threshold cannot exceed 255, got %d", threshold)
	}
	if total > 255 {
		return nil, fmt.Errorf("total shares cannot exceed 255, got %d", total)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	field := vss.GenericField()
	width := field.ByteLen()
	blocks := splitBlocks(secret)
	values := make([][]byte, total)
	for i := range values {
		values[i] = make([]byte, 0, len(blocks)*width)
	}

	for _, block := range blocks {
		encoded := append([]byte{blockMarker}, block...)
		poly, err := vss.NewRandomPolynomial(field, threshold-1, field.NewScalar(new(big.Int).SetBytes(encoded)), random)
		if err != nil {
			return nil, fmt.Errorf("failed to split secret: %w", err)
		}
		for i := range values {
			y := poly.Evaluate(field.ScalarFromUint64(uint64(i + 1)))
			values[i] = append(values[i], y.Bytes()...)
		}
	}

	shares := make([]*Share, total)
	for i := range shares {
		shares[i] = &Share{
			Index:     i + 1,
			Threshold: threshold,
			Total:     total,
			Value:     hex.EncodeToString(values[i]),
			Metadata:  make(map[string]string),
		}
	}
	return shares, nil
}

// Combine reconstructs the original secret from M or more shares.
// Any subset of M shares from the original N shares can be used. Errors from
// the interpolation (duplicate indices, too few shares) wrap the vss sentinels.
//
// Example:
//
//	// Reconstruct secret from any 3 of the 5 shares
//	secret, err := shamir.Combine([]*Share{shares[0], shares[2], shares[4]})
func Combine(shares []*Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("no shares provided")
	}

	threshold := shares[0].Threshold
	total := shares[0].Total

	for i, share := range shares {
		if err := share.Validate(); err != nil {
			return nil, fmt.Errorf("invalid share %d: %w", i, err)
		}
		if share.Threshold != threshold {
			return nil, fmt.Errorf("share %d has different threshold (%d) than share 0 (%d)",
				i, share.Threshold, threshold)
		}
		if share.Total != total {
			return nil, fmt.Errorf("share %d has different total (%d) than share 0 (%d)",
				i, share.Total, total)
		}
	}

	if len(shares) < threshold {
		return nil, fmt.Errorf("need at least %d shares, got %d: %w", threshold, len(shares), vss.ErrInsufficientShares)
	}

	field := vss.GenericField()
	width := field.ByteLen()
	values := make([][]byte, len(shares))
	for i, share := range shares {
		raw, err := share.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to decode share %d: %w", i, err)
		}
		if len(raw) == 0 || len(raw)%width != 0 {
			return nil, fmt.Errorf("share %d has malformed value length %d", i, len(raw))
		}
		if i > 0 && len(raw) != len(values[0]) {
			return nil, fmt.Errorf("share %d has different length than share 0", i)
		}
		values[i] = raw
	}

	blockCount := len(values[0]) / width
	secret := make([]byte, 0, blockCount*BlockSize)
	for b := 0; b < blockCount; b++ {
		points := make([]vss.Point, len(shares))
		for i, share := range shares {
			points[i] = vss.Point{
				X: big.NewInt(int64(share.Index)),
				Y: new(big.Int).SetBytes(values[i][b*width : (b+1)*width]),
			}
		}
		value, err := vss.ReconstructSecret(field, points, threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to combine shares: %w", err)
		}
		encoded := value.Bytes()
		if len(encoded) < 2 || len(encoded) > BlockSize+1 || encoded[0] != blockMarker {
			return nil, fmt.Errorf("failed to combine shares: block %d is corrupt or shares are inconsistent", b)
		}
		secret = append(secret, encoded[1:]...)
	}
	return secret, nil
}

// VerifyShare checks if a share is valid and consistent with other shares.
// This is useful for detecting corrupted or tampered shares.
func VerifyShare(share *Share, otherShares []*Share) error {
	if err := share.Validate(); err != nil {
		return err
	}

	for i, other := range otherShares {
		if other.Threshold != share.Threshold {
			return fmt.Errorf("share threshold mismatch with share %d: %d != %d",
				i, other.Threshold, share.Threshold)
		}
		if other.Total != share.Total {
			return fmt.Errorf("share total mismatch with share %d: %d != %d",
				i, other.Total, share.Total)
		}
		if other.Index == share.Index {
			return fmt.Errorf("duplicate share index: %d", share.Index)
		}
	}
	return nil
}

func splitBlocks(secret []byte) [][]byte {
	blocks := make([][]byte, 0, (len(secret)+BlockSize-1)/BlockSize)
	for start := 0; start < len(secret); start += BlockSize {
		end := min(start+BlockSize, len(secret))
		blocks = append(blocks, secret[start:end])
	}
	return blocks
}
