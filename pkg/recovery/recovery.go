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
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// CreateRequest opens a recovery of Source for Requester.
type CreateRequest struct {
	ID                 string
	Source             Source
	Requester          string
	RequesterPublicKey string
}

// ReceiptRequest carries one shareholder's share encrypted to the requester.
type ReceiptRequest struct {
	Shareholder string
	Ciphertext  string
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dkg.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateID(field, id string) error {
	if !dkg.ValidID(id) {
		return invalidInput("%s %q is not a valid identifier", field, id)
	}
	return nil
}

// Create opens a recovery session. The threshold, share count and epoch are
// captured from the source, which must be a READY or FINALIZED DKG session
// or an existing sharing.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	start := time.Now()
	s, err := m.create(ctx, req)
	return s, m.observe(ctx, metrics.OpRecoveryCreate, start, err,
		logger.String("recovery_id", req.ID), logger.String("source", req.Source.ID))
}

func (m *Manager) create(ctx context.Context, req CreateRequest) (*Session, error) {
	if req.ID == "" {
		req.ID = m.cfg.NewID()
	}
	if err := validateID("recovery id", req.ID); err != nil {
		return nil, err
	}
	if err := validateID("source id", req.Source.ID); err != nil {
		return nil, err
	}
	if err := validateID("requester", req.Requester); err != nil {
		return nil, err
	}
	if _, err := m.cfg.Curve.ParsePublicKey(req.RequesterPublicKey); err != nil {
		return nil, invalidInput("requester public key: %v", err)
	}

	var (
		eff    effects
		result *Session
	)
	err := m.update(ctx, metrics.OpRecoveryCreate, &eff, func(tx storage.Tx) error {
		exists, err := tx.Exists(recoveryKey(req.ID))
		if err != nil {
			return err
		}
		if exists {
			return invalidInput("recovery %s already exists", req.ID)
		}
		src, err := loadSource(tx, req.Source)
		if err != nil {
			return err
		}
		now := m.cfg.Clock()
		s := &Session{
			ID:                 req.ID,
			Source:             req.Source,
			Epoch:              src.epoch,
			Dealer:             src.dealer,
			Requester:          req.Requester,
			RequesterPublicKey: req.RequesterPublicKey,
			Threshold:          src.threshold,
			Total:              src.total,
			CreatedAt:          now,
		}
		eff.transition(s, StatusOpen, now)
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventRecoveryCreate,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.Requester,
			Resource:  resource(req.ID),
			Metadata: map[string]interface{}{
				"source_kind": string(req.Source.Kind),
				"source_id":   req.Source.ID,
				"threshold":   src.threshold,
			},
		})
		result = s
		return putJSON(tx, recoveryKey(s.ID), s)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, req.ID, &eff)
	return result, nil
}

// Get returns a recovery session.
func (m *Manager) Get(ctx context.Context, rid string) (*Session, error) {
	var s *Session
	err := m.view(ctx, "recovery_get", func(tx storage.Tx) error {
		var err error
		s, err = LoadSession(tx, rid)
		return err
	})
	return s, err
}

// ListReceipts returns the receipts of a recovery ordered by shareholder.
func (m *Manager) ListReceipts(ctx context.Context, rid string) ([]Receipt, error) {
	var rs []Receipt
	err := m.view(ctx, "recovery_receipts", func(tx storage.Tx) error {
		if _, err := LoadSession(tx, rid); err != nil {
			return err
		}
		var err error
		rs, err = LoadReceipts(tx, rid)
		return err
	})
	return rs, err
}

// SubmitReceipt stores a shareholder's receipt. A second receipt from the
// same shareholder fails with ErrAlreadySubmitted and leaves the first
// untouched. The receipt that reaches the threshold moves the session to
// DONE and is the only one reported as Completed.
func (m *Manager) SubmitReceipt(ctx context.Context, rid string, req ReceiptRequest) (*ReceiptResult, error) {
	start := time.Now()
	res, err := m.submitReceipt(ctx, rid, req)
	return res, m.observe(ctx, metrics.OpRecoveryReceipt, start, err,
		logger.String("recovery_id", rid), logger.String("shareholder", req.Shareholder))
}

func (m *Manager) submitReceipt(ctx context.Context, rid string, req ReceiptRequest) (*ReceiptResult, error) {
	if err := validateID("shareholder", req.Shareholder); err != nil {
		return nil, err
	}
	if req.Ciphertext == "" {
		return nil, invalidInput("ciphertext is required")
	}
	if raw, err := hex.DecodeString(req.Ciphertext); err != nil || hex.EncodeToString(raw) != req.Ciphertext {
		return nil, invalidInput("ciphertext must be lowercase hex")
	}

	var (
		eff    effects
		result *ReceiptResult
	)
	err := m.update(ctx, metrics.OpRecoveryReceipt, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, rid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "submit_receipt", StatusOpen, StatusVerifying); err != nil {
			return err
		}
		if _, err := shareholderX(tx, s.Source, req.Shareholder); err != nil {
			return err
		}
		key := receiptKey(rid, req.Shareholder)
		exists, err := tx.Exists(key)
		if err != nil {
			return err
		}
		if exists {
			return &dkg.ParticipantError{Session: rid, Participant: req.Shareholder, Err: dkg.ErrAlreadySubmitted}
		}

		now := m.cfg.Clock()
		if err := putJSON(tx, key, &Receipt{
			Shareholder: req.Shareholder,
			Ciphertext:  req.Ciphertext,
			ReceivedAt:  now,
		}); err != nil {
			return err
		}
		ids, err := storage.ListIDs(tx, receiptDir(rid))
		if err != nil {
			return err
		}
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventRecoveryReceipt,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.Shareholder,
			Resource:  resource(rid),
			Metadata:  map[string]interface{}{"count": len(ids), "threshold": s.Threshold},
		})

		result = &ReceiptResult{Count: len(ids), Threshold: s.Threshold}
		if s.Status == StatusOpen {
			eff.transition(s, StatusVerifying, now)
		}
		if len(ids) >= s.Threshold {
			s.FinishedAt = &now
			eff.transition(s, StatusDone, now)
			eff.audit(&audit.AuditEvent{
				EventType: audit.EventRecoveryComplete,
				Severity:  audit.SeverityInfo,
				Outcome:   audit.OutcomeSuccess,
				Actor:     req.Shareholder,
				Resource:  resource(rid),
				Metadata:  map[string]interface{}{"count": len(ids)},
			})
			result.Completed = true
		}
		result.Status = s.Status
		if len(eff.transitions) == 0 {
			return nil
		}
		return putJSON(tx, recoveryKey(rid), s)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, rid, &eff)
	return result, nil
}

// GetReconstructableShares returns the receipts of a DONE recovery paired
// with their share x-coordinates, ordered by x.
func (m *Manager) GetReconstructableShares(ctx context.Context, rid string) ([]ReconstructableShare, error) {
	start := time.Now()
	var out []ReconstructableShare
	err := m.view(ctx, metrics.OpRecoveryShares, func(tx storage.Tx) error {
		s, err := LoadSession(tx, rid)
		if err != nil {
			return err
		}
		if s.Status != StatusDone {
			return fmt.Errorf("%w: recovery %s is %s", dkg.ErrNotReady, rid, s.Status)
		}
		receipts, err := LoadReceipts(tx, rid)
		if err != nil {
			return err
		}
		out = make([]ReconstructableShare, 0, len(receipts))
		for _, rc := range receipts {
			x, err := shareholderX(tx, s.Source, rc.Shareholder)
			if err != nil && !missingShare(err) {
				return dkg.WrapStore(metrics.OpRecoveryShares, err)
			}
			if err == nil && x == 0 {
				err = errors.New("x-coordinate 0")
			}
			if err != nil {
				return &dkg.ParticipantError{Session: rid, Participant: rc.Shareholder,
					Err: fmt.Errorf("%w: %v", dkg.ErrMissingOriginalShare, err)}
			}
			out = append(out, ReconstructableShare{X: x, Shareholder: rc.Shareholder, Ciphertext: rc.Ciphertext})
		}
		return nil
	})
	if err != nil {
		return nil, m.observe(ctx, metrics.OpRecoveryShares, start, err, logger.String("recovery_id", rid))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	m.observe(ctx, metrics.OpRecoveryShares, start, nil)
	return out, nil
}

// missingShare reports whether err means the source has no share for the
// shareholder, as opposed to a record that could not be read.
func missingShare(err error) bool {
	return errors.Is(err, dkg.ErrParticipantNotJoined) ||
		errors.Is(err, dkg.ErrNotFound) ||
		errors.Is(err, storage.ErrNotFound)
}

// Fail aborts an unfinished recovery. Failing a FAILED recovery is a no-op.
func (m *Manager) Fail(ctx context.Context, rid, reason string) error {
	start := time.Now()
	var eff effects
	err := m.update(ctx, metrics.OpRecoveryFail, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, rid)
		if err != nil {
			return err
		}
		if s.Status == StatusFailed {
			return nil
		}
		if err := requireStatus(s, "fail", StatusOpen, StatusVerifying); err != nil {
			return err
		}
		s.FailReason = reason
		eff.transition(s, StatusFailed, m.cfg.Clock())
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventRecoveryFail,
			Severity:  audit.SeverityWarn,
			Outcome:   audit.OutcomeFailure,
			Resource:  resource(rid),
			Result:    reason,
		})
		return putJSON(tx, recoveryKey(rid), s)
	})
	if err == nil {
		m.emit(ctx, rid, &eff)
	}
	return m.observe(ctx, metrics.OpRecoveryFail, start, err, logger.String("recovery_id", rid))
}

// Delete removes a recovery session. Its receipts are removed first.
func (m *Manager) Delete(ctx context.Context, rid string) error {
	start := time.Now()
	var eff effects
	err := m.update(ctx, metrics.OpRecoveryDelete, &eff, func(tx storage.Tx) error {
		if _, err := LoadSession(tx, rid); err != nil {
			return err
		}
		ids, err := storage.ListIDs(tx, receiptDir(rid))
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Delete(receiptKey(rid, id)); err != nil {
				return err
			}
		}
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventRecoveryDelete,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Resource:  resource(rid),
			Metadata:  map[string]interface{}{"receipts": len(ids)},
		})
		return tx.Delete(recoveryKey(rid))
	})
	if err == nil {
		m.emit(ctx, rid, &eff)
	}
	return m.observe(ctx, metrics.OpRecoveryDelete, start, err, logger.String("recovery_id", rid))
}
