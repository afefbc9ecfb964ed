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
	"io"
)

// Ceremony drives a complete DKG in process: every party joins, commits,
// exchanges encrypted shares, verifies what it received and reports
// readiness, then the coordinator marks the session ready and finalizes.
type Ceremony struct {
	Manager *Manager
	Parties []*Party
}

// NewCeremony creates n parties named by name(i) for i in 1..n.
func NewCeremony(mgr *Manager, n int, name func(i int) string, random io.Reader) (*Ceremony, error) {
	parties := make([]*Party, n)
	for i := range parties {
		p, err := NewParty(name(i+1), mgr.Curve(), mgr.Hasher(), random)
		if err != nil {
			return nil, err
		}
		parties[i] = p
	}
	return &Ceremony{Manager: mgr, Parties: parties}, nil
}

// Run executes the ceremony for a new session. The first party is the host.
// On a bad share the receiving party files a complaint and Run returns the
// complaint's error.
func (c *Ceremony) Run(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if req.N == 0 {
		req.N = len(c.Parties)
	}
	if req.N != len(c.Parties) {
		return nil, invalidInput("ceremony has %d parties for n=%d", len(c.Parties), req.N)
	}
	if req.Host == "" {
		req.Host = c.Parties[0].ID()
	}
	s, err := c.Manager.CreateSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.Join(ctx, s.ID); err != nil {
		return nil, err
	}
	if err := c.Commit(ctx, s); err != nil {
		return nil, err
	}
	if err := c.Exchange(ctx, s.ID); err != nil {
		return nil, err
	}
	if err := c.Ready(ctx, s.ID); err != nil {
		return nil, err
	}
	if _, err := c.Manager.MarkReady(ctx, s.ID); err != nil {
		return nil, err
	}
	return c.Manager.Finalize(ctx, s.ID)
}

// Join registers every party.
func (c *Ceremony) Join(ctx context.Context, sid string) error {
	for i, p := range c.Parties {
		joined, err := c.Manager.Join(ctx, sid, p.JoinRequest(i == 0))
		if err != nil {
			return err
		}
		p.Joined(joined)
	}
	return nil
}

// Commit publishes every party's commitments for the session's epoch.
func (c *Ceremony) Commit(ctx context.Context, s *Session) error {
	for _, p := range c.Parties {
		req, err := p.Commit(s.ID, s.Epoch, s.T)
		if err != nil {
			return err
		}
		if _, err := c.Manager.SubmitCommitments(ctx, s.ID, req); err != nil {
			return err
		}
	}
	return nil
}

// Exchange sends every pairwise share, then has each recipient verify and
// consume its inbox.
func (c *Ceremony) Exchange(ctx context.Context, sid string) error {
	s, err := c.Manager.GetSession(ctx, sid)
	if err != nil {
		return err
	}
	commitments, err := c.Manager.ListCommitments(ctx, sid)
	if err != nil {
		return err
	}
	transcript, err := TranscriptHash(c.Manager.Hasher(), sid, s.Epoch, commitments)
	if err != nil {
		return err
	}
	participants, err := c.Manager.ListParticipants(ctx, sid)
	if err != nil {
		return err
	}

	for _, p := range c.Parties {
		for _, to := range participants {
			if to.ID == p.ID() || !to.Active() {
				continue
			}
			req, err := p.ShareFor(sid, s.Epoch, to, transcript)
			if err != nil {
				return err
			}
			if _, err := c.Manager.SubmitShare(ctx, sid, req); err != nil {
				return err
			}
		}
	}

	byDealer := make(map[string]Commitment, len(commitments))
	for _, cm := range commitments {
		byDealer[cm.Participant] = cm
	}
	for _, p := range c.Parties {
		inbox, err := c.Manager.Inbox(ctx, sid, p.ID())
		if err != nil {
			return err
		}
		for _, msg := range inbox {
			if msg.ConsumedAt != nil {
				continue
			}
			if err := c.Manager.VerifyShareSignature(ctx, sid, p.ID(), msg.ID); err != nil {
				return err
			}
			if err := p.Receive(msg, byDealer[msg.From]); err != nil {
				if KindOf(err) != KindCommitmentMismatch {
					return err
				}
				return c.complain(ctx, sid, p, msg.From, err)
			}
			if _, err := c.Manager.MarkConsumed(ctx, sid, p.ID(), msg.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Ceremony) complain(ctx context.Context, sid string, p *Party, dealer string, cause error) error {
	req, err := p.Complaint(dealer)
	if err != nil {
		return cause
	}
	complaint, err := c.Manager.FileComplaint(ctx, sid, req)
	if err != nil {
		return fmt.Errorf("%v; filing complaint: %w", cause, err)
	}
	if err := complaint.Err(); err != nil {
		return err
	}
	return cause
}

// Ready submits every party's readiness claim.
func (c *Ceremony) Ready(ctx context.Context, sid string) error {
	s, err := c.Manager.GetSession(ctx, sid)
	if err != nil {
		return err
	}
	commitments, err := c.Manager.ListCommitments(ctx, sid)
	if err != nil {
		return err
	}
	for _, p := range c.Parties {
		req, err := p.Ready(sid, s.Epoch, commitments)
		if err != nil {
			return err
		}
		if _, err := c.Manager.SubmitReady(ctx, sid, req); err != nil {
			return err
		}
	}
	return nil
}

// SecretShares returns each party's share of the group key as a vss point
// keyed by party ID.
func (c *Ceremony) SecretShares(n int) (map[string]SharePoint, error) {
	out := make(map[string]SharePoint, len(c.Parties))
	for _, p := range c.Parties {
		s, err := p.SecretShare(n)
		if err != nil {
			return nil, err
		}
		out[p.ID()] = SharePoint{X: p.Index(), Share: s.Hex()}
	}
	return out, nil
}

// SharePoint is a party's aggregated share in hex with its x-coordinate.
type SharePoint struct {
	X     uint64
	Share string
}
