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
	"fmt"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// ComplaintRequest accuses a dealer of sending a bad share. Share is the
// decrypted share the accuser received from the accused, as hex.
type ComplaintRequest struct {
	Accuser string
	Accused string
	Share   string
}

// FileComplaint checks the revealed share against the accused's
// commitments at the accuser's index and records the verdict. An upheld
// complaint is returned with a nil error; Complaint.Err reports it as
// ErrCommitmentMismatch.
func (m *Manager) FileComplaint(ctx context.Context, sid string, req ComplaintRequest) (*Complaint, error) {
	start := time.Now()
	c, err := m.fileComplaint(ctx, sid, req)
	return c, m.observe(ctx, metrics.OpFileComplaint, start, err,
		logger.String("session_id", sid), logger.String("accuser", req.Accuser), logger.String("accused", req.Accused))
}

func (m *Manager) fileComplaint(ctx context.Context, sid string, req ComplaintRequest) (*Complaint, error) {
	if req.Accuser == req.Accused {
		return nil, invalidInput("a participant cannot accuse itself")
	}
	share, err := vss.CurveOrderField().ParseScalar(req.Share)
	if err != nil {
		return nil, invalidInput("share: %v", err)
	}

	var (
		eff    effects
		result *Complaint
	)
	err = m.update(ctx, metrics.OpFileComplaint, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "file_complaint", StatusOpen, StatusCommitted, StatusReady); err != nil {
			return err
		}
		accuser, err := LoadActiveParticipant(tx, sid, req.Accuser)
		if err != nil {
			return err
		}
		if _, err := LoadActiveParticipant(tx, sid, req.Accused); err != nil {
			return err
		}
		commitment, err := loadCommitment(tx, sid, s.Epoch, req.Accused)
		if err != nil {
			return err
		}
		points, err := m.cfg.Curve.ParsePoints(commitment.Points)
		if err != nil {
			return fmt.Errorf("%w: stored commitments of %s: %v", ErrCommitmentMismatch, req.Accused, err)
		}

		c := &Complaint{
			ID:           m.cfg.NewID(),
			Session:      sid,
			Epoch:        s.Epoch,
			Reason:       ReasonBadShare,
			Accuser:      req.Accuser,
			Accused:      req.Accused,
			Verdict:      VerdictDismissed,
			EvidenceHash: gost.HexDigest(m.cfg.Hasher, share.Bytes()),
			CreatedAt:    m.now(),
		}
		event := &audit.AuditEvent{
			EventType: audit.EventComplaintFiled,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.Accuser,
			Resource:  sessionResource(s),
			Metadata:  map[string]interface{}{"accused": req.Accused, "complaint_id": c.ID},
		}
		if !vss.VerifyShare(m.cfg.Curve, accuser.Index, share.Big(), points) {
			c.Verdict = VerdictUpheld
			c.Details = fmt.Sprintf("share for index %d does not match commitments revision %d", accuser.Index, commitment.Revision)
			event.Severity = audit.SeverityError
			event.Outcome = audit.OutcomeFailure
		}
		event.Result = string(c.Verdict)
		eff.audit(event)
		eff.complaints = append(eff.complaints, c.Reason)
		result = c
		return putJSON(tx, complaintKey(sid, s.Epoch, c.ID), c)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, sid, &eff)
	if result.Verdict == VerdictUpheld {
		logger.WithContext(m.log, ctx).Error("complaint upheld",
			logger.String("session_id", sid),
			logger.String("accuser", req.Accuser),
			logger.String("accused", req.Accused))
	}
	return result, nil
}

// ListComplaints returns the complaints of the current epoch, oldest first.
func (m *Manager) ListComplaints(ctx context.Context, sid string) ([]Complaint, error) {
	var cs []Complaint
	err := m.view(ctx, "list_complaints", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		cs, err = loadComplaints(tx, sid, s.Epoch)
		return err
	})
	return cs, err
}
