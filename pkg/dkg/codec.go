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
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

// encMode is the core deterministic CBOR encoding (RFC 8949 section 4.2).
// Every byte string that is hashed or signed is produced with it.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dkg: cbor encoder: %v", err))
	}
	return em
}()

// Domain separation tags for signed payloads.
const (
	tagCommitments = "go-dkg/commitments/v1"
	tagShare       = "go-dkg/share/v1"
	tagTranscript  = "go-dkg/transcript/v1"
)

type commitmentPayload struct {
	Tag         string   `cbor:"1,keyasint"`
	Session     string   `cbor:"2,keyasint"`
	Epoch       uint64   `cbor:"3,keyasint"`
	Participant string   `cbor:"4,keyasint"`
	Points      []string `cbor:"5,keyasint"`
}

type sharePayload struct {
	Tag            string `cbor:"1,keyasint"`
	Session        string `cbor:"2,keyasint"`
	Epoch          uint64 `cbor:"3,keyasint"`
	From           string `cbor:"4,keyasint"`
	To             string `cbor:"5,keyasint"`
	Ciphertext     []byte `cbor:"6,keyasint"`
	TranscriptHash string `cbor:"7,keyasint"`
}

type transcriptEntry struct {
	Participant string `cbor:"1,keyasint"`
	Hash        string `cbor:"2,keyasint"`
}

type transcriptPayload struct {
	Tag     string            `cbor:"1,keyasint"`
	Session string            `cbor:"2,keyasint"`
	Epoch   uint64            `cbor:"3,keyasint"`
	Entries []transcriptEntry `cbor:"4,keyasint"`
}

// EncodeCommitments returns the canonical encoding of a commitment sequence.
func EncodeCommitments(points []string) ([]byte, error) {
	return encMode.Marshal(points)
}

// CommitmentHash returns Hash256 of the canonical commitment encoding.
func CommitmentHash(h gost.Hasher, points []string) (string, error) {
	data, err := EncodeCommitments(points)
	if err != nil {
		return "", fmt.Errorf("encode commitments: %w", err)
	}
	return gost.HexDigest(h, data), nil
}

// CommitmentMessage returns the bytes a participant signs when publishing
// commitments. It binds the points to the session, epoch and signer.
func CommitmentMessage(session string, epoch uint64, participant string, points []string) ([]byte, error) {
	return encMode.Marshal(commitmentPayload{
		Tag:         tagCommitments,
		Session:     session,
		Epoch:       epoch,
		Participant: participant,
		Points:      points,
	})
}

// ShareMessageBytes returns the bytes a sender signs for a share message.
func ShareMessageBytes(session string, epoch uint64, from, to string, ciphertext []byte, transcriptHash string) ([]byte, error) {
	return encMode.Marshal(sharePayload{
		Tag:            tagShare,
		Session:        session,
		Epoch:          epoch,
		From:           from,
		To:             to,
		Ciphertext:     ciphertext,
		TranscriptHash: transcriptHash,
	})
}

// TranscriptHash binds a round to the exact commitments published in it.
// The commitments may be given in any order.
func TranscriptHash(h gost.Hasher, session string, epoch uint64, commitments []Commitment) (string, error) {
	entries := make([]transcriptEntry, len(commitments))
	for i, c := range commitments {
		entries[i] = transcriptEntry{Participant: c.Participant, Hash: c.Hash}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Participant < entries[j].Participant })
	data, err := encMode.Marshal(transcriptPayload{
		Tag:     tagTranscript,
		Session: session,
		Epoch:   epoch,
		Entries: entries,
	})
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return gost.HexDigest(h, data), nil
}

// QHash returns Hash256 of the group public key's wire bytes.
func QHash(h gost.Hasher, q gost.Point) string {
	return gost.HexDigest(h, q.Bytes())
}

// decodeHex parses a non-empty lowercase hex string.
func decodeHex(field, s string) ([]byte, error) {
	if s == "" {
		return nil, invalidInput("%s is required", field)
	}
	raw, err := hex.DecodeString(s)
	if err != nil || hex.EncodeToString(raw) != s {
		return nil, invalidInput("%s must be lowercase hex", field)
	}
	return raw, nil
}

// decodeSignature parses a hex GOST signature.
func decodeSignature(s string) ([]byte, error) {
	raw, err := decodeHex("signature", s)
	if err != nil {
		return nil, err
	}
	if len(raw) != gost.SignatureSize {
		return nil, invalidInput("signature must be %d bytes", gost.SignatureSize)
	}
	return raw, nil
}

// ShareAAD is the associated data bound into a share ciphertext.
func ShareAAD(session string, epoch uint64, from, to string) []byte {
	data, err := encMode.Marshal([]any{tagShare, session, epoch, from, to})
	if err != nil {
		panic(fmt.Sprintf("dkg: encode share aad: %v", err))
	}
	return data
}
