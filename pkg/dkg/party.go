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

package dkg

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/ecies"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// Party is the participant side of the protocol. It owns the participant's
// signing key, secret polynomial and received shares; none of these ever
// reach the Manager in plaintext.
type Party struct {
	id       string
	curve    *gost.Curve
	hasher   gost.Hasher
	random   io.Reader
	key      *gost.PrivateKey
	poly     *vss.Polynomial
	index    uint64
	received map[string]*vss.Scalar
}

// NewParty generates a signing key for participant id.
func NewParty(id string, curve *gost.Curve, hasher gost.Hasher, random io.Reader) (*Party, error) {
	if err := validateID("participant", id); err != nil {
		return nil, err
	}
	key, err := curve.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("generate key for %s: %w", id, err)
	}
	return &Party{
		id:       id,
		curve:    curve,
		hasher:   hasher,
		random:   random,
		key:      key,
		received: make(map[string]*vss.Scalar),
	}, nil
}

// ID returns the participant identifier.
func (p *Party) ID() string { return p.id }

// PrivateKey returns the participant's end-to-end key.
func (p *Party) PrivateKey() *gost.PrivateKey { return p.key }

// Index returns the share x-coordinate assigned at join, or 0.
func (p *Party) Index() uint64 { return p.index }

// JoinRequest returns the request registering this party's public key.
func (p *Party) JoinRequest(host bool) JoinRequest {
	return JoinRequest{
		Participant: p.id,
		PublicKey:   p.key.Public().Hex(),
		Algorithm:   gost.AlgorithmTag,
		Host:        host,
	}
}

// Joined records the index assigned by the session.
func (p *Party) Joined(self *Participant) {
	p.index = self.Index
}

// Commit draws a fresh polynomial of degree t-1 and returns the signed
// commitment request. Shares received for an earlier polynomial are
// discarded.
func (p *Party) Commit(sid string, epoch uint64, t int) (CommitmentRequest, error) {
	poly, err := vss.NewRandomPolynomial(vss.CurveOrderField(), t-1, nil, p.random)
	if err != nil {
		return CommitmentRequest{}, err
	}
	p.poly = poly
	p.received = make(map[string]*vss.Scalar)
	points := gost.EncodePoints(poly.Commit(p.curve))
	msg, err := CommitmentMessage(sid, epoch, p.id, points)
	if err != nil {
		return CommitmentRequest{}, err
	}
	sig, err := p.key.Sign(p.random, msg)
	if err != nil {
		return CommitmentRequest{}, err
	}
	return CommitmentRequest{
		Participant: p.id,
		Commitments: points,
		Signature:   hex.EncodeToString(sig),
	}, nil
}

// ShareFor encrypts this party's evaluation at the recipient's index to
// the recipient's public key and signs the message.
func (p *Party) ShareFor(sid string, epoch uint64, recipient Participant, transcript string) (ShareRequest, error) {
	if p.poly == nil {
		return ShareRequest{}, fmt.Errorf("%w: %s has not committed", ErrNotReady, p.id)
	}
	pub, err := p.curve.ParsePublicKey(recipient.PublicKey)
	if err != nil {
		return ShareRequest{}, err
	}
	share := p.poly.Evaluate(vss.CurveOrderField().ScalarFromUint64(recipient.Index))
	ct, err := ecies.Encrypt(p.random, pub, share.Bytes(), ShareAAD(sid, epoch, p.id, recipient.ID))
	if err != nil {
		return ShareRequest{}, err
	}
	payload, err := ShareMessageBytes(sid, epoch, p.id, recipient.ID, ct, transcript)
	if err != nil {
		return ShareRequest{}, err
	}
	sig, err := p.key.Sign(p.random, payload)
	if err != nil {
		return ShareRequest{}, err
	}
	return ShareRequest{
		From:           p.id,
		To:             recipient.ID,
		Ciphertext:     hex.EncodeToString(ct),
		TranscriptHash: transcript,
		Signature:      hex.EncodeToString(sig),
	}, nil
}

// Receive decrypts a share and verifies it against the sender's
// commitments. A share that fails verification is kept so it can be
// revealed in a complaint, and ErrCommitmentMismatch is returned.
func (p *Party) Receive(msg ShareMessage, sender Commitment) error {
	ct, err := hex.DecodeString(msg.Ciphertext)
	if err != nil {
		return invalidInput("ciphertext: %v", err)
	}
	plain, err := ecies.Decrypt(p.key, ct, ShareAAD(msg.Session, msg.Epoch, msg.From, msg.To))
	if err != nil {
		return &ParticipantError{Session: msg.Session, Participant: msg.From,
			Err: fmt.Errorf("%w: share does not decrypt: %v", ErrCommitmentMismatch, err)}
	}
	share, err := vss.CurveOrderField().ParseScalar(hex.EncodeToString(plain))
	if err != nil {
		return &ParticipantError{Session: msg.Session, Participant: msg.From,
			Err: fmt.Errorf("%w: %v", ErrCommitmentMismatch, err)}
	}
	p.received[msg.From] = share
	points, err := p.curve.ParsePoints(sender.Points)
	if err != nil {
		return &ParticipantError{Session: msg.Session, Participant: msg.From,
			Err: fmt.Errorf("%w: %v", ErrCommitmentMismatch, err)}
	}
	if !vss.VerifyShare(p.curve, p.index, share.Big(), points) {
		return &ParticipantError{Session: msg.Session, Participant: msg.From, Err: ErrCommitmentMismatch}
	}
	return nil
}

// Complaint reveals the share received from accused.
func (p *Party) Complaint(accused string) (ComplaintRequest, error) {
	share, ok := p.received[accused]
	if !ok {
		return ComplaintRequest{}, fmt.Errorf("%w: no share from %s", ErrNotFound, accused)
	}
	return ComplaintRequest{Accuser: p.id, Accused: accused, Share: share.Hex()}, nil
}

// Ready computes Q from all commitments and returns the readiness claim.
func (p *Party) Ready(sid string, epoch uint64, commitments []Commitment) (ReadyRequest, error) {
	sets := make([][]gost.Point, len(commitments))
	for i, c := range commitments {
		points, err := p.curve.ParsePoints(c.Points)
		if err != nil {
			return ReadyRequest{}, err
		}
		sets[i] = points
	}
	q, err := vss.PublicKeyFromCommitments(p.curve, sets)
	if err != nil {
		return ReadyRequest{}, err
	}
	transcript, err := TranscriptHash(p.hasher, sid, epoch, commitments)
	if err != nil {
		return ReadyRequest{}, err
	}
	return ReadyRequest{
		Participant:    p.id,
		QHash:          QHash(p.hasher, q),
		TranscriptHash: transcript,
	}, nil
}

// SecretShare returns this party's share of the group key: its own
// evaluation plus every share received. It fails unless shares from all
// n-1 other participants are present.
func (p *Party) SecretShare(n int) (*vss.Scalar, error) {
	if p.poly == nil || p.index == 0 {
		return nil, fmt.Errorf("%w: %s has not committed", ErrNotReady, p.id)
	}
	if len(p.received) != n-1 {
		return nil, fmt.Errorf("%w: %s holds %d of %d shares", ErrInsufficientShares, p.id, len(p.received), n-1)
	}
	field := vss.CurveOrderField()
	dealers := make([]string, 0, len(p.received))
	for d := range p.received {
		dealers = append(dealers, d)
	}
	sort.Strings(dealers)
	shares := []*vss.Scalar{p.poly.Evaluate(field.ScalarFromUint64(p.index))}
	for _, d := range dealers {
		shares = append(shares, p.received[d])
	}
	return vss.AggregateShares(field, shares), nil
}
