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

package recovery

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/ecies"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

const tagReceipt = "go-dkg/receipt/v1"

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("recovery: cbor encoder: %v", err))
	}
	return em
}()

// ReceiptAAD binds a receipt ciphertext to its recovery and shareholder.
func ReceiptAAD(rid, shareholder string) []byte {
	data, err := encMode.Marshal([]any{tagReceipt, rid, shareholder})
	if err != nil {
		panic(fmt.Sprintf("recovery: encode receipt aad: %v", err))
	}
	return data
}

// SealShare encrypts a shareholder's share to the requester and returns the
// hex ciphertext expected by SubmitReceipt.
func SealShare(random io.Reader, requester *gost.PublicKey, rid, shareholder string, share *vss.Scalar) (string, error) {
	ct, err := ecies.Encrypt(random, requester, share.Bytes(), ReceiptAAD(rid, shareholder))
	if err != nil {
		return "", fmt.Errorf("seal share for %s: %w", shareholder, err)
	}
	return hex.EncodeToString(ct), nil
}

// OpenShare decrypts a receipt with the requester's key and parses the share
// as an element of field.
func OpenShare(key *gost.PrivateKey, field *vss.Field, rid string, share ReconstructableShare) (vss.Point, error) {
	if field == nil {
		return vss.Point{}, fmt.Errorf("%w: share field cannot be nil", dkg.ErrInvalidInput)
	}
	ct, err := hex.DecodeString(share.Ciphertext)
	if err != nil {
		return vss.Point{}, fmt.Errorf("%w: ciphertext of %s: %v", dkg.ErrInvalidInput, share.Shareholder, err)
	}
	plain, err := ecies.Decrypt(key, ct, ReceiptAAD(rid, share.Shareholder))
	if err != nil {
		return vss.Point{}, &dkg.ParticipantError{Session: rid, Participant: share.Shareholder,
			Err: fmt.Errorf("%w: receipt does not decrypt: %v", dkg.ErrCommitmentMismatch, err)}
	}
	y, err := field.ParseScalar(hex.EncodeToString(plain))
	if err != nil {
		return vss.Point{}, &dkg.ParticipantError{Session: rid, Participant: share.Shareholder,
			Err: fmt.Errorf("%w: %v", dkg.ErrCommitmentMismatch, err)}
	}
	return vss.Point{X: new(big.Int).SetUint64(share.X), Y: y.Big()}, nil
}

// Reconstruct interpolates the secret from at least threshold shares.
func Reconstruct(field *vss.Field, shares []vss.Point, threshold int) (*big.Int, error) {
	return vss.ReconstructSecret(field, shares, threshold)
}

// Recover decrypts the reconstructable shares of a DONE recovery and returns
// the secret they interpolate to, in the field of the recovery's source.
func Recover(key *gost.PrivateKey, s *Session, shares []ReconstructableShare) (*big.Int, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: recovery session cannot be nil", dkg.ErrInvalidInput)
	}
	field := s.Field()
	points := make([]vss.Point, 0, len(shares))
	for _, sh := range shares {
		p, err := OpenShare(key, field, s.ID, sh)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return Reconstruct(field, points, s.Threshold)
}
