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

// Package metrics provides Prometheus instrumentation for DKG and recovery
// operations: operation counts and latencies, errors by kind, complaints,
// and session status transitions.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all go-dkg metrics
	Namespace = "dkg"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelKind      = "kind"
	LabelReason    = "reason"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// DKG operation names
	OpCreateSession     = "create_session"
	OpJoin              = "join"
	OpLeave             = "leave"
	OpSubmitCommitments = "submit_commitments"
	OpSubmitShare       = "submit_share"
	OpMarkDelivered     = "mark_delivered"
	OpMarkConsumed      = "mark_consumed"
	OpSubmitReady       = "submit_ready"
	OpMarkReady         = "mark_ready"
	OpFinalize          = "finalize"
	OpFileComplaint     = "file_complaint"
	OpFail              = "fail"
	OpRestart           = "restart"
	OpAudit             = "audit"
	OpCreateSharing     = "create_sharing"

	// Recovery operation names
	OpRecoveryCreate  = "recovery_create"
	OpRecoveryReceipt = "recovery_receipt"
	OpRecoveryShares  = "recovery_shares"
	OpRecoveryFail    = "recovery_fail"
	OpRecoveryDelete  = "recovery_delete"
)

var (
	// OperationsTotal counts protocol operations by name and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of protocol operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks operation latency, dominated by the store
	// transaction and curve arithmetic.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of protocol operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal counts failed operations by error kind (e.g. "already_submitted").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error kind",
		},
		[]string{LabelOperation, LabelKind},
	)

	// ComplaintsTotal counts recorded complaints by reason.
	ComplaintsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "complaints_total",
			Help:      "Total number of recorded complaints by reason",
		},
		[]string{LabelReason},
	)

	// SessionsTotal counts DKG sessions entering each status.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_total",
			Help:      "Total number of DKG session transitions into each status",
		},
		[]string{LabelStatus},
	)

	// RecoveriesTotal counts recovery sessions entering each status.
	RecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recoveries_total",
			Help:      "Total number of recovery session transitions into each status",
		},
		[]string{LabelStatus},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a protocol operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	err := mgr.Join(ctx, sid, req)
//	status := StatusSuccess
//	if err != nil {
//	    status = StatusError
//	}
//	RecordOperation(OpJoin, status, time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a failed operation under its error kind.
func RecordError(operation, kind string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, kind).Inc()
}

// Observe records the outcome of an operation that started at start.
// kind is only used when err is non-nil.
func Observe(operation string, start time.Time, err error, kind string) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
		RecordError(operation, kind)
	}
	RecordOperation(operation, status, time.Since(start).Seconds())
}

// RecordComplaint counts a complaint by reason.
func RecordComplaint(reason string) {
	if !enabled.Load() {
		return
	}
	ComplaintsTotal.WithLabelValues(reason).Inc()
}

// RecordSessionTransition counts a DKG session entering status.
func RecordSessionTransition(status string) {
	if !enabled.Load() {
		return
	}
	SessionsTotal.WithLabelValues(status).Inc()
}

// RecordRecoveryTransition counts a recovery session entering status.
func RecordRecoveryTransition(status string) {
	if !enabled.Load() {
		return
	}
	RecoveriesTotal.WithLabelValues(status).Inc()
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
