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
	"context"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/correlation"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Manager runs DKG session operations. Each operation is one store
// transaction; the Manager holds no session state in memory and is safe
// for concurrent use.
type Manager struct {
	cfg Config
	log logger.Logger
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &Manager{
		cfg: cfg,
		log: cfg.Logger.With(logger.String("component", "dkg")),
	}, nil
}

// Curve returns the group used for commitments.
func (m *Manager) Curve() *gost.Curve { return m.cfg.Curve }

// Hasher returns the configured Hash256.
func (m *Manager) Hasher() gost.Hasher { return m.cfg.Hasher }

// Store returns the backing store.
func (m *Manager) Store() storage.Transactional { return m.cfg.Store }

// effects collects side effects that are only emitted once a transaction
// has committed.
type effects struct {
	events      []*audit.AuditEvent
	transitions []Status
	complaints  []ComplaintReason
	messages    []*ShareMessage
}

func (e *effects) reset() {
	*e = effects{}
}

func (e *effects) audit(event *audit.AuditEvent) {
	e.events = append(e.events, event)
}

func (e *effects) transition(s *Session, to Status, now time.Time) {
	s.Status = to
	s.UpdatedAt = now
	e.transitions = append(e.transitions, to)
	e.audit(&audit.AuditEvent{
		EventType: audit.EventSessionTransition,
		Severity:  audit.SeverityInfo,
		Outcome:   audit.OutcomeSuccess,
		Resource:  sessionResource(s),
		Action:    "transition",
		Result:    string(to),
	})
}

func sessionResource(s *Session) *audit.Resource {
	return &audit.Resource{Type: audit.ResourceSession, ID: s.ID, Epoch: s.Epoch}
}

func (m *Manager) update(ctx context.Context, op string, eff *effects, fn func(tx storage.Tx) error) error {
	ctx, cancel := storage.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	err := m.cfg.Store.Update(ctx, func(tx storage.Tx) error {
		if eff != nil {
			eff.reset()
		}
		return fn(tx)
	})
	return WrapStore(op, err)
}

func (m *Manager) view(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	ctx, cancel := storage.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	return WrapStore(op, m.cfg.Store.View(ctx, fn))
}

// emit publishes committed side effects to metrics, audit, logs and the
// notifier.
func (m *Manager) emit(ctx context.Context, sid string, eff *effects) {
	log := logger.WithContext(m.log, ctx).With(logger.String("session_id", sid))
	for _, status := range eff.transitions {
		metrics.RecordSessionTransition(string(status))
		log.Info("session transition", logger.String("status", string(status)))
	}
	for _, reason := range eff.complaints {
		metrics.RecordComplaint(string(reason))
	}
	for _, event := range eff.events {
		if event.CorrelationID == "" {
			event.CorrelationID = correlation.GetCorrelationID(ctx)
		}
		if err := m.cfg.Audit.LogEvent(ctx, event); err != nil {
			log.Warn("audit event dropped", logger.String("event_type", string(event.EventType)), logger.Error(err))
		}
	}
	if m.cfg.Notifier == nil {
		return
	}
	for _, msg := range eff.messages {
		if err := m.cfg.Notifier.Notify(ctx, msg); err != nil {
			log.Warn("share notification failed",
				logger.String("message_id", msg.ID),
				logger.String("to", msg.To),
				logger.Error(err))
		}
	}
}

// observe records the outcome of an operation. Rejections are logged at
// Warn and cryptographic failures at Error; err is returned unchanged.
func (m *Manager) observe(ctx context.Context, op string, start time.Time, err error, fields ...logger.Field) error {
	kind := KindOf(err)
	metrics.Observe(op, start, err, kind.String())
	if err == nil {
		return nil
	}
	log := logger.WithContext(m.log, ctx).With(fields...).With(
		logger.String("operation", op),
		logger.String("kind", kind.String()),
		logger.Error(err))
	switch kind {
	case KindSignatureInvalid, KindCommitmentMismatch:
		log.Error("verification failed")
	default:
		log.Warn("operation rejected")
	}
	return err
}

func (m *Manager) now() time.Time {
	return m.cfg.Clock()
}

// requireStatus returns a StateError unless s is in one of allowed.
func requireStatus(s *Session, op string, allowed ...Status) error {
	for _, a := range allowed {
		if s.Status == a {
			return nil
		}
	}
	return &StateError{Resource: "session " + s.ID, Op: op, Status: string(s.Status)}
}
