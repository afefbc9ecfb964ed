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

// Package recovery implements recovery sessions: a requester collects
// shares of a DKG session or threshold sharing, each re-encrypted to the
// requester's key by its holder, until the threshold is reached.
//
// Receipts are first-writer-wins. The receipt that brings the count to the
// threshold moves the session to DONE in the same store transaction, so
// concurrent submissions finish a session exactly once.
//
// Example usage:
//
//	mgr, err := recovery.NewManager(recovery.Config{Store: store})
//	rs, err := mgr.Create(ctx, recovery.CreateRequest{
//	    Source:             recovery.Source{Kind: recovery.SourceDKG, ID: sid},
//	    Requester:          "alice",
//	    RequesterPublicKey: pub.Hex(),
//	})
//	res, err := mgr.SubmitReceipt(ctx, rs.ID, recovery.ReceiptRequest{
//	    Shareholder: "p2",
//	    Ciphertext:  sealed,
//	})
package recovery

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/correlation"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Manager runs recovery sessions against a store.
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
		log: cfg.Logger.With(logger.String("component", "recovery")),
	}, nil
}

type effects struct {
	events      []*audit.AuditEvent
	transitions []Status
}

func (e *effects) audit(event *audit.AuditEvent) {
	e.events = append(e.events, event)
}

func (e *effects) transition(s *Session, to Status, now time.Time) {
	s.Status = to
	s.UpdatedAt = now
	e.transitions = append(e.transitions, to)
}

func resource(rid string) *audit.Resource {
	return &audit.Resource{Type: audit.ResourceRecovery, ID: rid}
}

func (m *Manager) update(ctx context.Context, op string, eff *effects, fn func(tx storage.Tx) error) error {
	ctx, cancel := storage.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	err := m.cfg.Store.Update(ctx, func(tx storage.Tx) error {
		*eff = effects{}
		return fn(tx)
	})
	return dkg.WrapStore(op, err)
}

func (m *Manager) view(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	ctx, cancel := storage.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	return dkg.WrapStore(op, m.cfg.Store.View(ctx, fn))
}

func (m *Manager) emit(ctx context.Context, rid string, eff *effects) {
	log := logger.WithContext(m.log, ctx).With(logger.String("recovery_id", rid))
	for _, status := range eff.transitions {
		metrics.RecordRecoveryTransition(string(status))
		log.Info("recovery transition", logger.String("status", string(status)))
	}
	for _, event := range eff.events {
		if event.CorrelationID == "" {
			event.CorrelationID = correlation.GetCorrelationID(ctx)
		}
		if err := m.cfg.Audit.LogEvent(ctx, event); err != nil {
			log.Warn("audit event dropped", logger.String("event_type", string(event.EventType)), logger.Error(err))
		}
	}
}

func (m *Manager) observe(ctx context.Context, op string, start time.Time, err error, fields ...logger.Field) error {
	kind := dkg.KindOf(err)
	metrics.Observe(op, start, err, kind.String())
	if err == nil {
		return nil
	}
	log := logger.WithContext(m.log, ctx).With(fields...).With(
		logger.String("operation", op),
		logger.String("kind", kind.String()),
		logger.Error(err))
	if kind == dkg.KindMissingOriginalShare {
		log.Error("recovery data integrity violation")
	} else {
		log.Warn("operation rejected")
	}
	return err
}

func requireStatus(s *Session, op string, allowed ...Status) error {
	for _, a := range allowed {
		if s.Status == a {
			return nil
		}
	}
	return &dkg.StateError{Resource: "recovery " + s.ID, Op: op, Status: string(s.Status)}
}
