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
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// HolderRequest assigns one encrypted share to a holder.
type HolderRequest struct {
	Participant string
	X           uint64
	Ciphertext  string
}

// SharingRequest records a dealer-style threshold sharing. ID is generated
// when empty.
type SharingRequest struct {
	ID        string
	Dealer    string
	Threshold int
	Holders   []HolderRequest
}

// CreateSharing stores a sharing and its holders. Only ciphertexts and
// x-coordinates are recorded.
func (m *Manager) CreateSharing(ctx context.Context, req SharingRequest) (*Sharing, error) {
	start := time.Now()
	s, err := m.createSharing(ctx, req)
	return s, m.observe(ctx, metrics.OpCreateSharing, start, err, logger.String("sharing_id", req.ID))
}

func (m *Manager) createSharing(ctx context.Context, req SharingRequest) (*Sharing, error) {
	if req.ID == "" {
		req.ID = m.cfg.NewID()
	}
	if err := validateID("sharing id", req.ID); err != nil {
		return nil, err
	}
	if err := validateID("dealer", req.Dealer); err != nil {
		return nil, err
	}
	if req.Threshold < MinThreshold || req.Threshold > len(req.Holders) || len(req.Holders) > MaxParticipants {
		return nil, invalidInput("require %d <= threshold <= holders <= %d, got threshold=%d holders=%d",
			MinThreshold, MaxParticipants, req.Threshold, len(req.Holders))
	}
	seenID := make(map[string]bool, len(req.Holders))
	seenX := make(map[uint64]bool, len(req.Holders))
	for _, h := range req.Holders {
		if err := validateID("holder", h.Participant); err != nil {
			return nil, err
		}
		if seenID[h.Participant] {
			return nil, invalidInput("holder %s listed twice", h.Participant)
		}
		if h.X == 0 {
			return nil, invalidInput("holder %s has x-coordinate 0", h.Participant)
		}
		if seenX[h.X] {
			return nil, &ParticipantError{Session: req.ID, Participant: h.Participant, Err: ErrDuplicateShareIndex}
		}
		if _, err := decodeHex("ciphertext", h.Ciphertext); err != nil {
			return nil, err
		}
		seenID[h.Participant] = true
		seenX[h.X] = true
	}

	var result *Sharing
	err := m.update(ctx, metrics.OpCreateSharing, nil, func(tx storage.Tx) error {
		exists, err := tx.Exists(sharingKey(req.ID))
		if err != nil {
			return err
		}
		if exists {
			return invalidInput("sharing %s already exists", req.ID)
		}
		result = &Sharing{
			ID:        req.ID,
			Dealer:    req.Dealer,
			Threshold: req.Threshold,
			Total:     len(req.Holders),
			CreatedAt: m.now(),
		}
		if err := putJSON(tx, sharingKey(req.ID), result); err != nil {
			return err
		}
		for _, h := range req.Holders {
			holder := Holder{Participant: h.Participant, X: h.X, Ciphertext: h.Ciphertext}
			if err := putJSON(tx, holderKey(req.ID, h.Participant), &holder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.recordEvent(ctx, &audit.AuditEvent{
		EventType: audit.EventSharingCreate,
		Severity:  audit.SeverityInfo,
		Outcome:   audit.OutcomeSuccess,
		Actor:     req.Dealer,
		Resource:  &audit.Resource{Type: audit.ResourceSharing, ID: req.ID},
		Metadata:  map[string]interface{}{"threshold": req.Threshold, "total": len(req.Holders)},
	})
	return result, nil
}

// GetSharing returns a sharing record.
func (m *Manager) GetSharing(ctx context.Context, id string) (*Sharing, error) {
	var s *Sharing
	err := m.view(ctx, "get_sharing", func(tx storage.Tx) error {
		var err error
		s, err = LoadSharing(tx, id)
		return err
	})
	return s, err
}

// ListHolders returns the holders of a sharing ordered by x-coordinate.
func (m *Manager) ListHolders(ctx context.Context, id string) ([]Holder, error) {
	var hs []Holder
	err := m.view(ctx, "list_holders", func(tx storage.Tx) error {
		if _, err := LoadSharing(tx, id); err != nil {
			return err
		}
		var err error
		hs, err = LoadHolders(tx, id)
		return err
	})
	return hs, err
}
