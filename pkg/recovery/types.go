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
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// Status is the lifecycle state of a recovery session.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusVerifying Status = "VERIFYING"
	StatusDone      Status = "DONE"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further receipts are accepted.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// SourceKind names the kind of record a recovery reconstructs from.
type SourceKind string

const (
	// SourceDKG is a READY or FINALIZED DKG session.
	SourceDKG SourceKind = "dkg"

	// SourceSharing is a dealer-created threshold sharing.
	SourceSharing SourceKind = "sharing"
)

// Source references the session whose shares are being recovered.
type Source struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// Session is a recovery session. It is DONE exactly when at least
// Threshold receipts reference it.
type Session struct {
	ID                 string     `json:"id"`
	Source             Source     `json:"source"`
	Epoch              uint64     `json:"epoch,omitempty"`
	Dealer             string     `json:"dealer,omitempty"`
	Requester          string     `json:"requester"`
	RequesterPublicKey string     `json:"requester_public_key"`
	Threshold          int        `json:"threshold"`
	Total              int        `json:"total"`
	Status             Status     `json:"status"`
	FailReason         string     `json:"fail_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
}

// Field returns the field the source's shares live in. DKG shares are
// scalars modulo the curve order; sharings use the generic field.
func (s *Session) Field() *vss.Field {
	if s.Source.Kind == SourceSharing {
		return vss.GenericField()
	}
	return vss.CurveOrderField()
}

// Receipt is a shareholder's share, encrypted to the requester. It is
// written at most once.
type Receipt struct {
	Shareholder string    `json:"shareholder"`
	Ciphertext  string    `json:"ciphertext"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ReceiptResult reports the effect of one accepted receipt.
type ReceiptResult struct {
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
	Status    Status `json:"status"`

	// Completed is true only for the receipt that moved the session to DONE.
	Completed bool `json:"completed"`
}

// ReconstructableShare pairs a receipt with the x-coordinate of the share
// it carries.
type ReconstructableShare struct {
	X           uint64 `json:"x"`
	Shareholder string `json:"shareholder"`
	Ciphertext  string `json:"ciphertext"`
}
