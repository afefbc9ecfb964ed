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
	"sort"
	"strings"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

// ReadyRequest is a participant's claim about the group public key.
type ReadyRequest struct {
	Participant    string
	QHash          string
	TranscriptHash string
}

// SubmitReady upserts a readiness record and returns the resulting report.
// A claim that disagrees with another participant is recorded as a
// qhash_mismatch complaint. When every participant has reported and the
// claims disagree, the session fails.
func (m *Manager) SubmitReady(ctx context.Context, sid string, req ReadyRequest) (*ReadinessReport, error) {
	start := time.Now()
	report, err := m.submitReady(ctx, sid, req)
	return report, m.observe(ctx, metrics.OpSubmitReady, start, err,
		logger.String("session_id", sid), logger.String("participant", req.Participant))
}

func (m *Manager) submitReady(ctx context.Context, sid string, req ReadyRequest) (*ReadinessReport, error) {
	if !gost.ValidDigestHex(req.QHash) {
		return nil, invalidInput("q hash must be %d lowercase hex characters", 2*gost.DigestSize)
	}
	if !gost.ValidDigestHex(req.TranscriptHash) {
		return nil, invalidInput("transcript hash must be %d lowercase hex characters", 2*gost.DigestSize)
	}

	var (
		eff    effects
		report *ReadinessReport
	)
	err := m.update(ctx, metrics.OpSubmitReady, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if s.Status == StatusOpen {
			return fmt.Errorf("%w: session %s is waiting for commitments", ErrNotReady, sid)
		}
		if _, err := LoadActiveParticipant(tx, sid, req.Participant); err != nil {
			return err
		}

		key := readyKey(sid, s.Epoch, req.Participant)
		var existing ReadinessRecord
		err = getJSON(tx, key, &existing)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil && existing.QHash == req.QHash && existing.TranscriptHash == req.TranscriptHash {
			report, err = m.report(tx, s)
			return err
		}
		if err := requireStatus(s, "submit_ready", StatusCommitted); err != nil {
			return err
		}

		now := m.now()
		rec := &ReadinessRecord{
			Participant:    req.Participant,
			Epoch:          s.Epoch,
			QHash:          req.QHash,
			TranscriptHash: req.TranscriptHash,
			SubmittedAt:    now,
		}
		if err := putJSON(tx, key, rec); err != nil {
			return err
		}
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventReadySubmit,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.Participant,
			Resource:  sessionResource(s),
			Metadata:  map[string]interface{}{"q_hash": req.QHash},
		})

		report, err = m.report(tx, s)
		if err != nil {
			return err
		}
		if len(report.Groups) > 1 {
			c := &Complaint{
				ID:        "qhash-" + req.Participant,
				Session:   sid,
				Epoch:     s.Epoch,
				Reason:    ReasonQHashMismatch,
				Accuser:   req.Participant,
				Verdict:   VerdictRecorded,
				Details:   describeGroups(req.QHash, report.Groups),
				CreatedAt: now,
			}
			if err := putJSON(tx, complaintKey(sid, s.Epoch, c.ID), c); err != nil {
				return err
			}
			report.Complaints = upsertComplaint(report.Complaints, *c)
			eff.complaints = append(eff.complaints, ReasonQHashMismatch)
			eff.audit(&audit.AuditEvent{
				EventType: audit.EventQHashMismatch,
				Severity:  audit.SeverityWarn,
				Outcome:   audit.OutcomeFailure,
				Actor:     req.Participant,
				Resource:  sessionResource(s),
				Result:    c.Details,
			})
			if report.Submitted == report.Expected {
				s.FailReason = "participants disagree on the group public key"
				eff.transition(s, StatusFailed, now)
				report.Status = StatusFailed
				return putJSON(tx, sessionKey(sid), s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, sid, &eff)
	return report, nil
}

// Readiness recomputes the report without writing.
func (m *Manager) Readiness(ctx context.Context, sid string) (*ReadinessReport, error) {
	var report *ReadinessReport
	err := m.view(ctx, "readiness", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		report, err = m.report(tx, s)
		return err
	})
	return report, err
}

// report summarises readiness claims of active participants.
func (m *Manager) report(r storage.Reader, s *Session) (*ReadinessReport, error) {
	ps, err := LoadParticipants(r, s.ID)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool)
	for _, p := range activeParticipants(ps) {
		active[p.ID] = true
	}
	records, err := loadReadiness(r, s.ID, s.Epoch)
	if err != nil {
		return nil, err
	}
	complaints, err := loadComplaints(r, s.ID, s.Epoch)
	if err != nil {
		return nil, err
	}

	transcript := ""
	if complete, err := allCommitted(r, s); err != nil {
		return nil, err
	} else if complete {
		cs, err := LoadCommitments(r, s.ID, s.Epoch)
		if err != nil {
			return nil, err
		}
		if transcript, err = TranscriptHash(m.cfg.Hasher, s.ID, s.Epoch, cs); err != nil {
			return nil, err
		}
	}

	report := &ReadinessReport{
		Session:    s.ID,
		Epoch:      s.Epoch,
		Status:     s.Status,
		Expected:   s.N,
		Complaints: complaints,
	}
	byHash := make(map[string][]string)
	for _, rec := range records {
		if !active[rec.Participant] {
			continue
		}
		report.Submitted++
		byHash[rec.QHash] = append(byHash[rec.QHash], rec.Participant)
		if rec.TranscriptHash != transcript {
			report.StaleTranscripts = append(report.StaleTranscripts, rec.Participant)
		}
	}
	report.Groups = make([]QHashGroup, 0, len(byHash))
	for h, members := range byHash {
		report.Groups = append(report.Groups, QHashGroup{QHash: h, Participants: members})
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		gi, gj := report.Groups[i], report.Groups[j]
		if len(gi.Participants) != len(gj.Participants) {
			return len(gi.Participants) > len(gj.Participants)
		}
		return gi.QHash < gj.QHash
	})
	report.Eligible = transcript != "" &&
		report.Submitted == report.Expected &&
		len(report.Groups) == 1 &&
		len(report.StaleTranscripts) == 0
	return report, nil
}

func describeGroups(claimed string, groups []QHashGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.QHash == claimed {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s by %s", g.QHash, strings.Join(g.Participants, ",")))
	}
	return fmt.Sprintf("claimed %s; other claims: %s", claimed, strings.Join(parts, "; "))
}

func upsertComplaint(cs []Complaint, c Complaint) []Complaint {
	for i := range cs {
		if cs[i].ID == c.ID {
			cs[i] = c
			return cs
		}
	}
	return append(cs, c)
}

// MarkReady moves a COMMITTED session to READY once its readiness report is
// eligible. The agreed QHash is fixed on the session.
func (m *Manager) MarkReady(ctx context.Context, sid string) (*ReadinessReport, error) {
	start := time.Now()
	var (
		eff    effects
		report *ReadinessReport
	)
	err := m.update(ctx, metrics.OpMarkReady, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "mark_ready", StatusCommitted); err != nil {
			return err
		}
		report, err = m.report(tx, s)
		if err != nil {
			return err
		}
		if !report.Eligible {
			return fmt.Errorf("%w: %d of %d participants agree on one group key", ErrNotReady,
				largestGroup(report), report.Expected)
		}
		s.AgreedQHash = report.Agreed()
		eff.transition(s, StatusReady, m.now())
		report.Status = StatusReady
		return putJSON(tx, sessionKey(sid), s)
	})
	if err != nil {
		report = nil
	} else {
		m.emit(ctx, sid, &eff)
	}
	return report, m.observe(ctx, metrics.OpMarkReady, start, err, logger.String("session_id", sid))
}

func largestGroup(r *ReadinessReport) int {
	if len(r.Groups) == 0 {
		return 0
	}
	return len(r.Groups[0].Participants)
}

// Finalize recomputes Q from the stored commitments, checks it against the
// agreed QHash and moves the session to FINALIZED.
func (m *Manager) Finalize(ctx context.Context, sid string) (*Session, error) {
	start := time.Now()
	var (
		eff    effects
		result *Session
	)
	err := m.update(ctx, metrics.OpFinalize, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "finalize", StatusReady); err != nil {
			return err
		}
		q, err := m.groupKey(tx, s)
		if err != nil {
			return err
		}
		if QHash(m.cfg.Hasher, q) != s.AgreedQHash {
			return fmt.Errorf("%w: stored commitments do not produce the agreed group key", ErrCommitmentMismatch)
		}
		now := m.now()
		s.PublicKey = q.Hex()
		s.FinalizedAt = &now
		eff.transition(s, StatusFinalized, now)
		result = s
		return putJSON(tx, sessionKey(sid), s)
	})
	if err != nil {
		if KindOf(err) == KindCommitmentMismatch {
			m.recordEvent(ctx, &audit.AuditEvent{
				EventType: audit.EventCommitmentMismatch,
				Severity:  audit.SeverityCritical,
				Outcome:   audit.OutcomeFailure,
				Resource:  &audit.Resource{Type: audit.ResourceSession, ID: sid},
				Action:    "finalize",
				Result:    err.Error(),
			})
		}
		return nil, m.observe(ctx, metrics.OpFinalize, start, err, logger.String("session_id", sid))
	}
	m.emit(ctx, sid, &eff)
	m.observe(ctx, metrics.OpFinalize, start, nil)
	return result, nil
}

// groupKey returns Q = sum of every active participant's constant commitment.
func (m *Manager) groupKey(r storage.Reader, s *Session) (gost.Point, error) {
	ps, err := LoadParticipants(r, s.ID)
	if err != nil {
		return gost.Point{}, err
	}
	active := activeParticipants(ps)
	sets := make([][]gost.Point, 0, len(active))
	for _, p := range active {
		c, err := loadCommitment(r, s.ID, s.Epoch, p.ID)
		if err != nil {
			return gost.Point{}, err
		}
		points, err := m.cfg.Curve.ParsePoints(c.Points)
		if err != nil {
			return gost.Point{}, &ParticipantError{Session: s.ID, Participant: p.ID,
				Err: fmt.Errorf("%w: stored commitments: %v", ErrCommitmentMismatch, err)}
		}
		sets = append(sets, points)
	}
	q, err := vss.PublicKeyFromCommitments(m.cfg.Curve, sets)
	if err != nil {
		return gost.Point{}, fmt.Errorf("%w: %v", ErrCommitmentMismatch, err)
	}
	if q.IsIdentity() {
		return gost.Point{}, fmt.Errorf("%w: group key is the identity", ErrCommitmentMismatch)
	}
	return q, nil
}

// GroupPublicKey returns Q for a FINALIZED session.
func (m *Manager) GroupPublicKey(ctx context.Context, sid string) (*gost.PublicKey, error) {
	s, err := m.GetSession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusFinalized {
		return nil, fmt.Errorf("%w: session %s is %s", ErrNotReady, sid, s.Status)
	}
	return m.cfg.Curve.ParsePublicKey(s.PublicKey)
}

// recordEvent writes an audit event outside a transaction.
func (m *Manager) recordEvent(ctx context.Context, event *audit.AuditEvent) {
	if err := m.cfg.Audit.LogEvent(ctx, event); err != nil {
		logger.WithContext(m.log, ctx).Warn("audit event dropped", logger.Error(err))
	}
}
