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

// Package audit records protocol-relevant events such as complaints,
// commitment overwrites, verification failures and recovery completion.
//
// Callers supply an AuditAdapter implementation. MemoryAuditAdapter keeps
// events in process and NopAdapter discards them.
package audit

import (
	"context"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// DKG session events
	EventSessionCreate     EventType = "session.create"
	EventSessionTransition EventType = "session.transition"
	EventParticipantJoin   EventType = "participant.join"
	EventParticipantLeave  EventType = "participant.leave"

	// Protocol message events
	EventCommitmentSubmit    EventType = "commitment.submit"
	EventCommitmentOverwrite EventType = "commitment.overwrite"
	EventShareSubmit         EventType = "share.submit"
	EventReadySubmit         EventType = "ready.submit"

	// Dispute events
	EventComplaintFiled EventType = "complaint.filed"
	EventQHashMismatch  EventType = "complaint.qhash_mismatch"

	// Verification events
	EventSignatureInvalid   EventType = "verify.signature_invalid"
	EventCommitmentMismatch EventType = "verify.commitment_mismatch"

	// Threshold sharing events
	EventSharingCreate EventType = "sharing.create"

	// Recovery events
	EventRecoveryCreate   EventType = "recovery.create"
	EventRecoveryReceipt  EventType = "recovery.receipt"
	EventRecoveryComplete EventType = "recovery.complete"
	EventRecoveryFail     EventType = "recovery.fail"
	EventRecoveryDelete   EventType = "recovery.delete"
)

// EventSeverity indicates the importance level of an audit event
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarn     EventSeverity = "warn"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// EventOutcome indicates the result of an operation
type EventOutcome string

const (
	OutcomeSuccess EventOutcome = "success"
	OutcomeFailure EventOutcome = "failure"
	OutcomeDenied  EventOutcome = "denied"
)

// Resource types recorded on events.
const (
	ResourceSession  = "dkg_session"
	ResourceSharing  = "sharing"
	ResourceRecovery = "recovery"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	// ID is a unique identifier for this audit event
	ID string

	// Timestamp when the event occurred
	Timestamp time.Time

	// EventType categorizes the event
	EventType EventType

	// Severity indicates the importance level
	Severity EventSeverity

	// Outcome indicates whether the operation succeeded
	Outcome EventOutcome

	// Actor is the participant that initiated the event, empty for the
	// coordinator.
	Actor string

	// Resource identifies the session, sharing or recovery concerned
	Resource *Resource

	// Action describes what was attempted
	Action string

	// Result contains the outcome or error message
	Result string

	// Metadata stores additional context
	Metadata map[string]interface{}

	// CorrelationID ties the event to the call that produced it
	CorrelationID string
}

// Resource represents the target of an action
type Resource struct {
	// Type is one of the Resource* constants
	Type string

	// ID is the unique identifier for this resource
	ID string

	// Epoch is the DKG epoch the event belongs to, zero when not applicable
	Epoch uint64
}

// AuditAdapter provides audit logging capabilities.
type AuditAdapter interface {
	// LogEvent records an audit event
	LogEvent(ctx context.Context, event *AuditEvent) error

	// GetEvents retrieves audit events based on query parameters
	GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error)

	// GetEvent retrieves a specific audit event by ID
	GetEvent(ctx context.Context, eventID string) (*AuditEvent, error)

	// GetStatistics returns audit statistics
	GetStatistics(ctx context.Context, query *StatisticsQuery) (*Statistics, error)
}

// EventQuery provides parameters for querying audit events
type EventQuery struct {
	EventTypes []EventType
	Severities []EventSeverity
	Outcomes   []EventOutcome

	// Actor filters by participant
	Actor string

	// ResourceID filters by session, sharing or recovery id
	ResourceID string

	StartTime *time.Time
	EndTime   *time.Time

	CorrelationID string

	// Limit limits the number of results
	Limit int

	// Offset skips the first N results
	Offset int

	// OrderBy is "timestamp_desc" (default) or "timestamp_asc"
	OrderBy string
}

// StatisticsQuery provides parameters for audit statistics
type StatisticsQuery struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// Statistics contains audit statistics
type Statistics struct {
	TotalEvents      int64
	EventsByType     map[EventType]int64
	EventsBySeverity map[EventSeverity]int64
	EventsByOutcome  map[EventOutcome]int64

	// TopActors lists the participants with the most events
	TopActors []ActorStats
}

// ActorStats contains statistics for a participant
type ActorStats struct {
	Actor      string
	EventCount int64
}
