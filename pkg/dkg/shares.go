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
	"sort"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// ShareRequest carries an encrypted share from one participant to another.
// Ciphertext is hex ECIES output addressed to the recipient's public key.
type ShareRequest struct {
	From           string
	To             string
	Ciphertext     string
	TranscriptHash string
	Signature      string
}

// SubmitShare appends a share message to the recipient's inbox.
func (m *Manager) SubmitShare(ctx context.Context, sid string, req ShareRequest) (*ShareMessage, error) {
	start := time.Now()
	msg, err := m.submitShare(ctx, sid, req)
	return msg, m.observe(ctx, metrics.OpSubmitShare, start, err,
		logger.String("session_id", sid), logger.String("from", req.From), logger.String("to", req.To))
}

func (m *Manager) submitShare(ctx context.Context, sid string, req ShareRequest) (*ShareMessage, error) {
	if req.From == req.To {
		return nil, invalidInput("sender and recipient must differ")
	}
	if _, err := decodeHex("ciphertext", req.Ciphertext); err != nil {
		return nil, err
	}
	if !gost.ValidDigestHex(req.TranscriptHash) {
		return nil, invalidInput("transcript hash must be %d lowercase hex characters", 2*gost.DigestSize)
	}
	if _, err := decodeSignature(req.Signature); err != nil {
		return nil, err
	}

	var (
		eff effects
		msg *ShareMessage
	)
	err := m.update(ctx, metrics.OpSubmitShare, &eff, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if err := requireStatus(s, "submit_share", StatusOpen, StatusCommitted); err != nil {
			return err
		}
		if _, err := LoadActiveParticipant(tx, sid, req.From); err != nil {
			return err
		}
		if _, err := LoadActiveParticipant(tx, sid, req.To); err != nil {
			return err
		}

		msg = &ShareMessage{
			ID:             m.cfg.NewID(),
			Session:        sid,
			Epoch:          s.Epoch,
			From:           req.From,
			To:             req.To,
			Ciphertext:     req.Ciphertext,
			TranscriptHash: req.TranscriptHash,
			Signature:      req.Signature,
			CreatedAt:      m.now(),
		}
		key := shareKey(sid, s.Epoch, req.To, msg.ID)
		exists, err := tx.Exists(key)
		if err != nil {
			return err
		}
		if exists {
			return invalidInput("message id %s already used", msg.ID)
		}
		eff.messages = append(eff.messages, msg)
		eff.audit(&audit.AuditEvent{
			EventType: audit.EventShareSubmit,
			Severity:  audit.SeverityInfo,
			Outcome:   audit.OutcomeSuccess,
			Actor:     req.From,
			Resource:  sessionResource(s),
			Metadata:  map[string]interface{}{"to": req.To, "message_id": msg.ID},
		})
		return putJSON(tx, key, msg)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, sid, &eff)
	return msg, nil
}

// Inbox returns the messages addressed to pid in the current epoch, oldest
// first.
func (m *Manager) Inbox(ctx context.Context, sid, pid string) ([]ShareMessage, error) {
	var msgs []ShareMessage
	err := m.view(ctx, "inbox", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if _, err := LoadParticipant(tx, sid, pid); err != nil {
			return err
		}
		msgs, err = loadAll[ShareMessage](tx, inboxDir(sid, s.Epoch, pid))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}

// GetShare returns one message from pid's inbox in the current epoch.
func (m *Manager) GetShare(ctx context.Context, sid, pid, mid string) (*ShareMessage, error) {
	var msg *ShareMessage
	err := m.view(ctx, "get_share", func(tx storage.Tx) error {
		var err error
		_, msg, err = loadShare(tx, sid, pid, mid)
		return err
	})
	return msg, err
}

func loadShare(r storage.Reader, sid, pid, mid string) (*Session, *ShareMessage, error) {
	s, err := LoadSession(r, sid)
	if err != nil {
		return nil, nil, err
	}
	var msg ShareMessage
	if err := getJSON(r, shareKey(sid, s.Epoch, pid, mid), &msg); err != nil {
		if isNotFound(err) {
			return nil, nil, notFound("message", mid)
		}
		return nil, nil, err
	}
	return s, &msg, nil
}

// MarkDelivered stamps DeliveredAt once.
func (m *Manager) MarkDelivered(ctx context.Context, sid, pid, mid string) (*ShareMessage, error) {
	return m.stamp(ctx, metrics.OpMarkDelivered, sid, pid, mid, false)
}

// MarkConsumed stamps ConsumedAt once, and DeliveredAt if it is unset.
func (m *Manager) MarkConsumed(ctx context.Context, sid, pid, mid string) (*ShareMessage, error) {
	return m.stamp(ctx, metrics.OpMarkConsumed, sid, pid, mid, true)
}

func (m *Manager) stamp(ctx context.Context, op, sid, pid, mid string, consumed bool) (*ShareMessage, error) {
	start := time.Now()
	var msg *ShareMessage
	err := m.update(ctx, op, nil, func(tx storage.Tx) error {
		var err error
		var s *Session
		s, msg, err = loadShare(tx, sid, pid, mid)
		if err != nil {
			return err
		}
		now := m.now()
		changed := false
		if msg.DeliveredAt == nil {
			msg.DeliveredAt = &now
			changed = true
		}
		if consumed && msg.ConsumedAt == nil {
			msg.ConsumedAt = &now
			changed = true
		}
		if !changed {
			return nil
		}
		return putJSON(tx, shareKey(sid, s.Epoch, pid, mid), msg)
	})
	if err != nil {
		msg = nil
	}
	return msg, m.observe(ctx, op, start, err, logger.String("session_id", sid), logger.String("message_id", mid))
}
