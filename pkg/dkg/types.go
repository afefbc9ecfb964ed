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

import "time"

// Status is the lifecycle state of a DKG session.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCommitted Status = "COMMITTED"
	StatusReady     Status = "READY"
	StatusFinalized Status = "FINALIZED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further protocol transitions are possible
// without a restart.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusFailed
}

// CommitmentPolicy decides what happens when a participant resubmits
// different commitments in the same epoch.
type CommitmentPolicy string

const (
	// PolicyOverwrite replaces the stored commitments, bumps the revision
	// and records an audit event.
	PolicyOverwrite CommitmentPolicy = "overwrite"

	// PolicyReject refuses the resubmission with ErrAlreadySubmitted.
	PolicyReject CommitmentPolicy = "reject"
)

// Session is a DKG session record.
type Session struct {
	ID     string `json:"id"`
	N      int    `json:"n"`
	T      int    `json:"t"`
	Epoch  uint64 `json:"epoch"`
	Status Status `json:"status"`
	Host   string `json:"host,omitempty"`
	Curve  string `json:"curve"`
	Hash   string `json:"hash"`

	// AgreedQHash is fixed by MarkReady.
	AgreedQHash string `json:"agreed_q_hash,omitempty"`

	// PublicKey is the hex group public key Q, set by Finalize.
	PublicKey string `json:"public_key,omitempty"`

	FailReason  string     `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// Participant is a session member.
type Participant struct {
	ID string `json:"id"`

	// Index is the share x-coordinate, 1..N in join order.
	Index     uint64     `json:"index"`
	PublicKey string     `json:"public_key"`
	Algorithm string     `json:"algorithm"`
	Host      bool       `json:"host"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}

// Active reports whether the participant is currently joined.
func (p *Participant) Active() bool {
	return p.LeftAt == nil
}

// Commitment is one participant's Feldman commitment set for an epoch.
type Commitment struct {
	Participant string   `json:"participant"`
	Epoch       uint64   `json:"epoch"`
	Points      []string `json:"points"`
	Signature   string   `json:"signature"`

	// Hash is Hash256 over the canonical encoding of Points.
	Hash          string    `json:"hash"`
	HashAlgorithm string    `json:"hash_algorithm"`
	Revision      int       `json:"revision"`
	SubmittedAt   time.Time `json:"submitted_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShareMessage is an encrypted share addressed to one participant.
// It is never modified after creation except for delivery timestamps.
type ShareMessage struct {
	ID             string     `json:"id"`
	Session        string     `json:"session"`
	Epoch          uint64     `json:"epoch"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	Ciphertext     string     `json:"ciphertext"`
	TranscriptHash string     `json:"transcript_hash"`
	Signature      string     `json:"signature"`
	CreatedAt      time.Time  `json:"created_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	ConsumedAt     *time.Time `json:"consumed_at,omitempty"`
}

// ReadinessRecord is a participant's claim about the group public key.
type ReadinessRecord struct {
	Participant    string    `json:"participant"`
	Epoch          uint64    `json:"epoch"`
	QHash          string    `json:"q_hash"`
	TranscriptHash string    `json:"transcript_hash"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// ComplaintReason identifies why a complaint was recorded.
type ComplaintReason string

const (
	// ReasonBadShare is a revealed share that fails commitment verification.
	ReasonBadShare ComplaintReason = "bad_share"

	// ReasonQHashMismatch is a readiness claim disagreeing with others.
	ReasonQHashMismatch ComplaintReason = "qhash_mismatch"
)

// Verdict is the outcome of checking a complaint.
type Verdict string

const (
	VerdictUpheld    Verdict = "upheld"
	VerdictDismissed Verdict = "dismissed"

	// VerdictRecorded marks inconsistencies left to an external arbiter.
	VerdictRecorded Verdict = "recorded"
)

// Complaint is a recorded protocol inconsistency.
type Complaint struct {
	ID      string          `json:"id"`
	Session string          `json:"session"`
	Epoch   uint64          `json:"epoch"`
	Reason  ComplaintReason `json:"reason"`
	Accuser string          `json:"accuser"`
	Accused string          `json:"accused,omitempty"`
	Verdict Verdict         `json:"verdict"`
	Details string          `json:"details,omitempty"`

	// EvidenceHash is Hash256 of the revealed share. The share itself is
	// never stored.
	EvidenceHash string    `json:"evidence_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Err returns the taxonomy error an upheld complaint represents, or nil.
func (c *Complaint) Err() error {
	if c.Verdict != VerdictUpheld {
		return nil
	}
	return &ParticipantError{Session: c.Session, Participant: c.Accused, Err: ErrCommitmentMismatch}
}

// QHashGroup lists the participants claiming one QHash.
type QHashGroup struct {
	QHash        string   `json:"q_hash"`
	Participants []string `json:"participants"`
}

// ReadinessReport summarises readiness for the current epoch.
type ReadinessReport struct {
	Session   string `json:"session"`
	Epoch     uint64 `json:"epoch"`
	Status    Status `json:"status"`
	Expected  int    `json:"expected"`
	Submitted int    `json:"submitted"`

	// Groups are ordered by size, largest first.
	Groups []QHashGroup `json:"groups"`

	// StaleTranscripts lists participants whose transcript hash does not
	// match the stored commitments.
	StaleTranscripts []string    `json:"stale_transcripts,omitempty"`
	Complaints       []Complaint `json:"complaints,omitempty"`

	// Eligible is true when every expected participant reported the same
	// QHash over the current transcript.
	Eligible bool `json:"eligible"`
}

// Agreed returns the single agreed QHash, or "" when there is none.
func (r *ReadinessReport) Agreed() string {
	if len(r.Groups) == 1 {
		return r.Groups[0].QHash
	}
	return ""
}

// Sharing is a dealer-style threshold sharing that a recovery may reference.
type Sharing struct {
	ID        string    `json:"id"`
	Dealer    string    `json:"dealer"`
	Threshold int       `json:"threshold"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// Holder is one share of a Sharing, encrypted to its holder.
type Holder struct {
	Participant string `json:"participant"`
	X           uint64 `json:"x"`
	Ciphertext  string `json:"ciphertext"`
}

// Finding is the audit result for one participant's commitments.
type Finding struct {
	Participant string `json:"participant"`
	Kind        Kind   `json:"kind"`
	Err         error  `json:"-"`
}

// OK reports whether the commitments verified.
func (f Finding) OK() bool {
	return f.Err == nil
}
