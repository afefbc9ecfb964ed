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
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// Sentinel errors for the protocol core.
// These errors can be checked with errors.Is().
var (
	// ErrInsufficientShares indicates fewer shares than the threshold.
	ErrInsufficientShares = errors.New("dkg: insufficient shares")

	// ErrDuplicateShareIndex indicates two shares with the same x-coordinate.
	ErrDuplicateShareIndex = errors.New("dkg: duplicate share index")

	// ErrParticipantNotJoined indicates an identity that is not an active
	// member of the session.
	ErrParticipantNotJoined = errors.New("dkg: participant not joined")

	// ErrAlreadySubmitted indicates a conflicting second submission.
	ErrAlreadySubmitted = errors.New("dkg: already submitted")

	// ErrNotReady indicates the session has not reached the required stage.
	ErrNotReady = errors.New("dkg: not ready")

	// ErrMissingOriginalShare indicates a shareholder without a recorded
	// x-coordinate.
	ErrMissingOriginalShare = errors.New("dkg: missing original share")

	// ErrStoreUnavailable indicates the store failed or timed out. Callers
	// may retry with backoff.
	ErrStoreUnavailable = errors.New("dkg: store unavailable")

	// ErrSignatureInvalid indicates a signature that does not verify.
	ErrSignatureInvalid = errors.New("dkg: signature invalid")

	// ErrCommitmentMismatch indicates data inconsistent with the published
	// commitments.
	ErrCommitmentMismatch = errors.New("dkg: commitment mismatch")

	// ErrInvalidInput indicates a request that failed boundary validation.
	ErrInvalidInput = errors.New("dkg: invalid input")

	// ErrNotFound indicates an unknown session, sharing or record.
	ErrNotFound = errors.New("dkg: not found")

	// ErrInvalidState indicates an operation not allowed in the current status.
	ErrInvalidState = errors.New("dkg: invalid state")

	// ErrSessionFull indicates a join beyond the session's participant count.
	ErrSessionFull = errors.New("dkg: session full")

	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("dkg: invalid configuration")
)

// Kind classifies an error for callers that map errors to responses.
type Kind int

const (
	KindUnknown Kind = iota
	KindInsufficientShares
	KindDuplicateShareIndex
	KindParticipantNotJoined
	KindAlreadySubmitted
	KindNotReady
	KindMissingOriginalShare
	KindStoreUnavailable
	KindSignatureInvalid
	KindCommitmentMismatch
	KindInvalidInput
	KindNotFound
	KindInvalidState
	KindSessionFull
	KindInvalidConfig
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindInsufficientShares:   "insufficient_shares",
	KindDuplicateShareIndex:  "duplicate_share_index",
	KindParticipantNotJoined: "participant_not_joined",
	KindAlreadySubmitted:     "already_submitted",
	KindNotReady:             "not_ready",
	KindMissingOriginalShare: "missing_original_share",
	KindStoreUnavailable:     "store_unavailable",
	KindSignatureInvalid:     "signature_invalid",
	KindCommitmentMismatch:   "commitment_mismatch",
	KindInvalidInput:         "invalid_input",
	KindNotFound:             "not_found",
	KindInvalidState:         "invalid_state",
	KindSessionFull:          "session_full",
	KindInvalidConfig:        "invalid_config",
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// kindTable is checked in order; the first match wins.
var kindTable = []struct {
	target error
	kind   Kind
}{
	{ErrInsufficientShares, KindInsufficientShares},
	{vss.ErrInsufficientShares, KindInsufficientShares},
	{ErrDuplicateShareIndex, KindDuplicateShareIndex},
	{vss.ErrDuplicateShareIndex, KindDuplicateShareIndex},
	{ErrParticipantNotJoined, KindParticipantNotJoined},
	{ErrAlreadySubmitted, KindAlreadySubmitted},
	{ErrNotReady, KindNotReady},
	{ErrMissingOriginalShare, KindMissingOriginalShare},
	{ErrSignatureInvalid, KindSignatureInvalid},
	{gost.ErrSignatureInvalid, KindSignatureInvalid},
	{ErrCommitmentMismatch, KindCommitmentMismatch},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{storage.ErrTimeout, KindStoreUnavailable},
	{storage.ErrClosed, KindStoreUnavailable},
	{ErrNotFound, KindNotFound},
	{ErrInvalidState, KindInvalidState},
	{ErrSessionFull, KindSessionFull},
	{ErrInvalidConfig, KindInvalidConfig},
	{ErrInvalidInput, KindInvalidInput},
	{gost.ErrInvalidPoint, KindInvalidInput},
	{gost.ErrInvalidKey, KindInvalidInput},
	{vss.ErrInvalidShareIndex, KindInvalidInput},
	{vss.ErrInvalidShare, KindInvalidInput},
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.target) {
			return entry.kind
		}
	}
	return KindUnknown
}

// ParticipantError attributes a failure to a session participant.
type ParticipantError struct {
	Session     string
	Participant string
	Err         error
}

// Error implements the error interface.
func (e *ParticipantError) Error() string {
	return fmt.Sprintf("session %s, participant %s: %v", e.Session, e.Participant, e.Err)
}

// Unwrap returns the underlying error for errors.Is() support.
func (e *ParticipantError) Unwrap() error {
	return e.Err
}

// StateError reports an operation rejected by the session status.
type StateError struct {
	Resource string
	Op       string
	Status   string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("dkg: %s not allowed on %s in status %s", e.Op, e.Resource, e.Status)
}

// Unwrap returns the underlying error for errors.Is() support.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// StoreError wraps a failure of the underlying store.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("dkg: store unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrStoreUnavailable and the store's own error.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// ConfigError provides detailed information about a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("dkg: invalid config %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error for errors.Is() support.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// invalidInput wraps ErrInvalidInput with a formatted message.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound wraps ErrNotFound with the missing resource.
func notFound(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// WrapStore maps a failed store call to a taxonomy error. Protocol errors
// returned by a transaction body pass through unchanged.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindUnknown:
	case KindStoreUnavailable:
		var se *StoreError
		if errors.As(err, &se) {
			return err
		}
	default:
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &StoreError{Op: op, Err: err}
}
