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
	"runtime"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// VerifyCommitmentSignature checks a participant's stored commitments in
// the current epoch: the recorded hash must match the points and the
// signature must verify under the participant's public key.
func (m *Manager) VerifyCommitmentSignature(ctx context.Context, sid, pid string) error {
	var (
		p *Participant
		c *Commitment
	)
	err := m.view(ctx, "verify_commitment", func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		if p, err = LoadParticipant(tx, sid, pid); err != nil {
			return err
		}
		c, err = loadCommitment(tx, sid, s.Epoch, pid)
		return err
	})
	if err != nil {
		return err
	}
	if err := m.verifyCommitment(sid, p, c); err != nil {
		m.reportVerification(ctx, sid, pid, err)
		return err
	}
	return nil
}

func (m *Manager) verifyCommitment(sid string, p *Participant, c *Commitment) error {
	fail := func(err error) error {
		return &ParticipantError{Session: sid, Participant: p.ID, Err: err}
	}
	h, err := gost.NewHasher(c.HashAlgorithm)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrCommitmentMismatch, err))
	}
	hash, err := CommitmentHash(h, c.Points)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrCommitmentMismatch, err))
	}
	if hash != c.Hash {
		return fail(fmt.Errorf("%w: recorded hash does not match commitments", ErrCommitmentMismatch))
	}
	msg, err := CommitmentMessage(sid, c.Epoch, p.ID, c.Points)
	if err != nil {
		return fail(err)
	}
	return m.verifySignature(p, msg, c.Signature, fail)
}

func (m *Manager) verifySignature(p *Participant, msg []byte, sigHex string, fail func(error) error) error {
	pub, err := m.cfg.Curve.ParsePublicKey(p.PublicKey)
	if err != nil {
		return fail(fmt.Errorf("%w: public key: %v", ErrSignatureInvalid, err))
	}
	sig, err := decodeSignature(sigHex)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrSignatureInvalid, err))
	}
	if err := pub.Verify(msg, sig); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrSignatureInvalid, err))
	}
	return nil
}

// VerifyShareSignature checks the sender's signature on a message in
// recipient's inbox.
func (m *Manager) VerifyShareSignature(ctx context.Context, sid, recipient, mid string) error {
	var (
		msg    *ShareMessage
		sender *Participant
	)
	err := m.view(ctx, "verify_share", func(tx storage.Tx) error {
		var err error
		if _, msg, err = loadShare(tx, sid, recipient, mid); err != nil {
			return err
		}
		sender, err = LoadParticipant(tx, sid, msg.From)
		return err
	})
	if err != nil {
		return err
	}
	fail := func(err error) error {
		return &ParticipantError{Session: sid, Participant: msg.From, Err: err}
	}
	ct, err := decodeHex("ciphertext", msg.Ciphertext)
	if err != nil {
		return fail(err)
	}
	payload, err := ShareMessageBytes(sid, msg.Epoch, msg.From, msg.To, ct, msg.TranscriptHash)
	if err != nil {
		return fail(err)
	}
	if err := m.verifySignature(sender, payload, msg.Signature, fail); err != nil {
		m.reportVerification(ctx, sid, msg.From, err)
		return err
	}
	return nil
}

// Audit verifies every active participant's commitments in the current
// epoch concurrently. A participant without commitments yields a NotReady
// finding. Findings are ordered like ListParticipants.
func (m *Manager) Audit(ctx context.Context, sid string) ([]Finding, error) {
	start := time.Now()
	var (
		participants []Participant
		commitments  = make(map[string]*Commitment)
	)
	err := m.view(ctx, metrics.OpAudit, func(tx storage.Tx) error {
		s, err := LoadSession(tx, sid)
		if err != nil {
			return err
		}
		ps, err := LoadParticipants(tx, sid)
		if err != nil {
			return err
		}
		participants = activeParticipants(ps)
		cs, err := LoadCommitments(tx, sid, s.Epoch)
		if err != nil {
			return err
		}
		for i := range cs {
			commitments[cs[i].Participant] = &cs[i]
		}
		return nil
	})
	if err != nil {
		return nil, m.observe(ctx, metrics.OpAudit, start, err, logger.String("session_id", sid))
	}

	findings := make([]Finding, len(participants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range participants {
		p := &participants[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := Finding{Participant: p.ID}
			if c, ok := commitments[p.ID]; ok {
				f.Err = m.verifyCommitment(sid, p, c)
			} else {
				f.Err = &ParticipantError{Session: sid, Participant: p.ID,
					Err: fmt.Errorf("%w: no commitments", ErrNotReady)}
			}
			f.Kind = KindOf(f.Err)
			findings[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, m.observe(ctx, metrics.OpAudit, start, fmt.Errorf("audit cancelled: %w", err),
			logger.String("session_id", sid))
	}

	for _, f := range findings {
		if f.Kind == KindSignatureInvalid || f.Kind == KindCommitmentMismatch {
			m.reportVerification(ctx, sid, f.Participant, f.Err)
		}
	}
	m.observe(ctx, metrics.OpAudit, start, nil)
	return findings, nil
}

// reportVerification logs and audits a cryptographic verification failure.
func (m *Manager) reportVerification(ctx context.Context, sid, pid string, err error) {
	eventType := audit.EventCommitmentMismatch
	if KindOf(err) == KindSignatureInvalid {
		eventType = audit.EventSignatureInvalid
	}
	logger.WithContext(m.log, ctx).Error("verification failed",
		logger.String("session_id", sid),
		logger.String("participant", pid),
		logger.String("kind", KindOf(err).String()),
		logger.Error(err))
	m.recordEvent(ctx, &audit.AuditEvent{
		EventType: eventType,
		Severity:  audit.SeverityCritical,
		Outcome:   audit.OutcomeFailure,
		Actor:     pid,
		Resource:  &audit.Resource{Type: audit.ResourceSession, ID: sid},
		Action:    "verify",
		Result:    err.Error(),
	})
}
