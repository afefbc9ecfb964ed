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
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// CreateSessionRequest describes a new session. ID is generated when empty.
type CreateSessionRequest struct {
	ID   string
	N    int
	T    int
	Host string
}

// JoinRequest registers a participant and its end-to-end public key.
type JoinRequest struct {
	Participant string
	PublicKey   string
	Algorithm   string
	Host        bool
}

// CreateSession creates an OPEN session in epoch 1.
func (m *Manager) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	start := time.Now()
	sid, err := m.createSession(ctx, req)
	if err != nil {
		return nil, m.observe(ctx, metrics.OpCreateSession, start, err, logger.String("session_id", req.ID))
	}
	m.observe(ctx, metrics.OpCreateSession, start, nil)
	return m.GetSession(ctx, sid)
}

func (m *Manager) createSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	if req.ID == "" {
		req.ID = m.cfg.NewID()
	}
	if err := validateID("session id", req.ID); err != nil {
		return "", err
	}
	if req.Host != "" {
		if err := validateID("host", req.Host); err != nil {
			return "", err
		}
	}
	if req.T < MinThreshold || req.T > req.N || req.N > MaxParticipants {
		return "", invalidInput("require %d <= t <= n <= %d, got t=%d n=%d", MinThreshold, MaxParticipants, req.T, req.N)
	}

	var eff effects
	err := m.update(ctx, metrics.OpCreateSession, &eff, func(tx storage.Tx) error {
		exists, err := tx.Exists(sessionKey(req.ID))
		if err != nil {
			return err
		}
		if exists {
			return invalidInput("session %s already exists", req.ID)
		}
		now := m.now()
		s := &Session{
			ID:        req.ID,
			N:         req.N,
			T:         req.T,
			Epoch:     1,
			Host:      req.Host,
			Curve:     m.cfg.Curve.Name(),
			Hash:      m.cfg.Hasher.Name(),
			CreatedAt: now,
		}
		eff.transition(s, StatusOpen, now)
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventSessionCreate,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.Host,
			Resource:  sessionResource(s),
			Metadata:  map[string]interface{}{"n": req.N, "t": req.T},
		})
		return putJSON(tx, sessionKey(s.ID), s)
	})
	if err != nil {
		return "", err
	}
	m.emit(ctx, req.ID, &eff)
	return req.ID, nil
}

// GetSession returns the session record.
func (m *Manager) GetSession(ctx context.Context, sid string) (*Session, error) {
	var s *Session
	err := m.view(ctx, "get_session", func(tx storage.Tx) error {
		var err error
		s, err = LoadSession(tx, sid)
		return err
	})
	return s, err
}

// ListParticipants returns every participant, including those who left,
// ordered by index.
func (m *Manager) ListParticipants(ctx context.Context, sid string) ([]Participant, error) {
	var ps []Participant
	err := m.view(ctx, "list_participants", func(tx storage.Tx) error {
		if _, err := LoadSession(tx, sid); err != nil {
			return err
		}
		var err error
		ps, err = LoadParticipants(tx, sid)
		return err
	})
	return ps, err
}

// Join adds a participant to an OPEN session. Joining again replaces the
// public key and keeps the index.
func (m *Manager) Join(ctx context.Context, sid string, req JoinRequest) (*Participant, error) {
	start := time.Now()
	p, err := m.join(ctx, sid, req)
	return p, m.observe(ctx, metrics.OpJoin, start, err,
		logger.String("session_id", sid), logger.String("participant", req.Participant))
}

func (m *Manager) join(ctx context.Context, sid string, req JoinRequest) (*Participant, error) {
	if err := validateID("participant", req.Participant); err != nil {
		return nil, err
	}
	if req.Algorithm == "" {
		req.Algorithm = gost.AlgorithmTag
	}
	if req.Algorithm != gost.AlgorithmTag {
		return nil, invalidInput("unsupported key algorithm %q", req.Algorithm)
	}
	if _, err := m.cfg.Curve.ParsePublicKey(req.PublicKey); err != nil {
		return nil, invalidInput("public key: %v", err)
	}

	var (
		eff    effects
		result *Participant
	)
	err := m.update(ctx, metrics.OpJoin, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "join", StatusOpen); err != nil {
			return err
		}
		all, err := LoadParticipants(tx, sid)
		if err != nil {
			return err
		}

		now := m.now()
		var p *Participant
		for i := range all {
			if all[i].ID == req.Participant {
				p = &all[i]
				break
			}
		}
		if p == nil {
			if len(all) >= s.N {
				return &ParticipantError{Session: sid, Participant: req.Participant, Err: ErrSessionFull}
			}
			p = &Participant{ID: req.Participant, Index: uint64(len(all)) + 1}
		}
		if p.Active() && p.PublicKey == req.PublicKey && p.Algorithm == req.Algorithm && p.Host == req.Host {
			result = p
			return nil
		}

		p.PublicKey = req.PublicKey
		p.Algorithm = req.Algorithm
		p.Host = req.Host
		p.JoinedAt = now
		p.LeftAt = nil
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventParticipantJoin,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     p.ID,
			Resource:  sessionResource(s),
			Metadata:  map[string]interface{}{"index": p.Index},
		})
		result = p
		return putJSON(tx, participantKey(sid, p.ID), p)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, sid, &eff)
	return result, nil
}

// Leave marks a participant as departed from an OPEN session.
func (m *Manager) Leave(ctx context.Context, sid, pid string) error {
	start := time.Now()
	var eff effects
	err := m.update(ctx, metrics.OpLeave, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "leave", StatusOpen); err != nil {
			return err
		}
		p, err := LoadActiveParticipant(tx, sid, pid)
		if err != nil {
			return err
		}
		now := m.now()
		p.LeftAt = &now
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventParticipantLeave,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     pid,
			Resource:  sessionResource(s),
		})
		return putJSON(tx, participantKey(sid, pid), p)
	})
	if err == nil {
		m.emit(ctx, sid, &eff)
	}
	return m.observe(ctx, metrics.OpLeave, start, err,
		logger.String("session_id", sid), logger.String("participant", pid))
}

// Fail moves a non-finalized session to FAILED. Failing a FAILED session
// is a no-op.
func (m *Manager) Fail(ctx context.Context, sid, reason string) error {
	start := time.Now()
	var eff effects
	err := m.update(ctx, metrics.OpFail, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if s.Status == StatusFailed {
			return nil
		}
		if err := requireStatus(s, "fail", StatusOpen, StatusCommitted, StatusReady); err != nil {
			return err
		}
		s.FailReason = reason
		eff.transition(s, StatusFailed, m.now())
		return putJSON(tx, sessionKey(sid), s)
	})
	if err == nil {
		m.emit(ctx, sid, &eff)
	}
	return m.observe(ctx, metrics.OpFail, start, err, logger.String("session_id", sid))
}

// Restart opens a new epoch. Records of earlier epochs are kept.
func (m *Manager) Restart(ctx context.Context, sid string) (*Session, error) {
	start := time.Now()
	var (
		eff    effects
		result *Session
	)
	err := m.update(ctx, metrics.OpRestart, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "restart", StatusOpen, StatusCommitted, StatusFailed); err != nil {
			return err
		}
		s.Epoch++
		s.AgreedQHash = ""
		s.FailReason = ""
		eff.transition(s, StatusOpen, m.now())
		result = s
		return putJSON(tx, sessionKey(sid), s)
	})
	if err == nil {
		m.emit(ctx, sid, &eff)
	}
	return result, m.observe(ctx, metrics.OpRestart, start, err, logger.String("session_id", sid))
}
