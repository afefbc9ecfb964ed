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
	"slices"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// CommitmentRequest publishes a participant's Feldman commitments.
// Commitments are T hex points, lowest coefficient first. Signature is the
// participant's hex signature over CommitmentMessage; it is recorded, not
// verified here.
type CommitmentRequest struct {
	Participant string
	Commitments []string
	Signature   string
}

// SubmitCommitments stores a participant's commitments for the current
// epoch. Identical resubmission writes nothing. A differing resubmission is
// handled by the configured CommitmentPolicy. Once every participant has
// committed the session becomes COMMITTED.
func (m *Manager) SubmitCommitments(ctx context.Context, sid string, req CommitmentRequest) (*Commitment, error) {
	start := time.Now()
	c, err := m.submitCommitments(ctx, sid, req)
	return c, m.observe(ctx, metrics.OpSubmitCommitments, start, err,
		logger.String("session_id", sid), logger.String("participant", req.Participant))
}

func (m *Manager) submitCommitments(ctx context.Context, sid string, req CommitmentRequest) (*Commitment, error) {
	if _, err := m.cfg.Curve.ParsePoints(req.Commitments); err != nil {
		return nil, invalidInput("commitments: %v", err)
	}
	if _, err := decodeSignature(req.Signature); err != nil {
		return nil, err
	}
	hash, err := CommitmentHash(m.cfg.Hasher, req.Commitments)
	if err != nil {
		return nil, err
	}

	var (
		eff    effects
		result *Commitment
	)
	err = m.update(ctx, metrics.OpSubmitCommitments, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "submit_commitments", StatusOpen, StatusCommitted); err != nil {
			return err
		}
		if _, err := LoadActiveParticipant(tx, sid, req.Participant); err != nil {
			return err
		}
		if len(req.Commitments) != s.T {
			return invalidInput("expected %d commitments, got %d", s.T, len(req.Commitments))
		}

		now := m.now()
		key := commitmentKey(sid, s.Epoch, req.Participant)
		var c Commitment
		err = getJSON(tx, key, &c)
		switch {
		case err == nil:
			if c.Hash == hash && c.HashAlgorithm == m.cfg.Hasher.Name() &&
				c.Signature == req.Signature && slices.Equal(c.Points, req.Commitments) {
				result = &c
				return nil
			}
			if m.cfg.CommitmentPolicy == PolicyReject {
				return &ParticipantError{Session: sid, Participant: req.Participant, Err: ErrAlreadySubmitted}
			}
			eff.audit(&audit.AuditEvent{
				EventType: audit.EventCommitmentOverwrite,
				Severity:  audit.SeverityWarn,
				Outcome:   audit.OutcomeSuccess,
				Actor:     req.Participant,
				Resource:  sessionResource(s),
				Metadata: map[string]interface{}{
					"previous_hash":     c.Hash,
					"hash":              hash,
					"previous_revision": c.Revision,
				},
			})
			c.Revision++
		case isNotFound(err):
			c = Commitment{
				Participant: req.Participant,
				Epoch:       s.Epoch,
				Revision:    1,
				SubmittedAt: now,
			}
			eff.audit(&audit.AuditEvent{
				EventType: audit.EventCommitmentSubmit,
				Severity:  audit.SeverityInfo,
				Outcome:   audit.OutcomeSuccess,
				Actor:     req.Participant,
				Resource:  sessionResource(s),
				Metadata:  map[string]interface{}{"hash": hash},
			})
		default:
			return err
		}

		c.Points = slices.Clone(req.Commitments)
		c.Signature = req.Signature
		c.Hash = hash
		c.HashAlgorithm = m.cfg.Hasher.Name()
		c.UpdatedAt = now
		if err := putJSON(tx, key, &c); err != nil {
			return err
		}
		result = &c

		if s.Status == StatusOpen {
			complete, err := allCommitted(tx, s)
			if err != nil {
				return err
			}
			if complete {
				eff.transition(s, StatusCommitted, now)
				return putJSON(tx, sessionKey(sid), s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, sid, &eff)
	return result, nil
}

// allCommitted reports whether all N participants are joined and have
// commitments in the current epoch.
func allCommitted(r storage.Reader, s *Session) (bool, error) {
	ps, err := LoadParticipants(r, s.ID)
	if err != nil {
		return false, err
	}
	active := activeParticipants(ps)
	if len(active) != s.N {
		return false, nil
	}
	for _, p := range active {
		ok, err := r.Exists(commitmentKey(s.ID, s.Epoch, p.ID))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// GetCommitment returns a participant's commitments in the current epoch.
func (m *Manager) GetCommitment(ctx context.Context, sid, pid string) (*Commitment, error) {
	var c *Commitment
	err := m.view(ctx, "get_commitment", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		c, err = loadCommitment(tx, sid, s.Epoch, pid)
		return err
	})
	return c, err
}

// ListCommitments returns the commitments of the current epoch ordered by
// participant.
func (m *Manager) ListCommitments(ctx context.Context, sid string) ([]Commitment, error) {
	var cs []Commitment
	err := m.view(ctx, "list_commitments", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		cs, err = LoadCommitments(tx, sid, s.Epoch)
		return err
	})
	return cs, err
}
