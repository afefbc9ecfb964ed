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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

func getJSON(r storage.Reader, key string, v any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrInvalidData, key, err)
	}
	return nil
}

func putJSON(tx storage.Tx, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return tx.Put(key, data, nil)
}

// LoadSession reads a recovery session record.
func LoadSession(r storage.Reader, rid string) (*Session, error) {
	var s Session
	if err := getJSON(r, recoveryKey(rid), &s); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: recovery %s", dkg.ErrNotFound, rid)
		}
		return nil, err
	}
	return &s, nil
}

// LoadReceipts returns the receipts of a recovery ordered by shareholder.
func LoadReceipts(r storage.Reader, rid string) ([]Receipt, error) {
	ids, err := storage.ListIDs(r, receiptDir(rid))
	if err != nil {
		return nil, err
	}
	out := make([]Receipt, 0, len(ids))
	for _, id := range ids {
		var rc Receipt
		if err := getJSON(r, receiptKey(rid, id), &rc); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// source is what a recovery captures from the session it references.
type source struct {
	threshold int
	total     int
	epoch     uint64
	dealer    string
}

func loadSource(r storage.Reader, src Source) (*source, error) {
	switch src.Kind {
	case SourceDKG:
		s, err := dkg.LoadSession(r, src.ID)
		if err != nil {
			return nil, err
		}
		if s.Status != dkg.StatusReady && s.Status != dkg.StatusFinalized {
			return nil, fmt.Errorf("%w: session %s is %s", dkg.ErrNotReady, s.ID, s.Status)
		}
		return &source{threshold: s.T, total: s.N, epoch: s.Epoch, dealer: s.Host}, nil
	case SourceSharing:
		sh, err := dkg.LoadSharing(r, src.ID)
		if err != nil {
			return nil, err
		}
		return &source{threshold: sh.Threshold, total: sh.Total, dealer: sh.Dealer}, nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", dkg.ErrInvalidInput, src.Kind)
	}
}

// shareholderX returns the x-coordinate of the share pid holds in the
// source. A shareholder unknown to the source yields ErrParticipantNotJoined.
func shareholderX(r storage.Reader, src Source, pid string) (uint64, error) {
	switch src.Kind {
	case SourceDKG:
		p, err := dkg.LoadActiveParticipant(r, src.ID, pid)
		if err != nil {
			return 0, err
		}
		return p.Index, nil
	case SourceSharing:
		h, err := dkg.LoadHolder(r, src.ID, pid)
		if err != nil {
			return 0, err
		}
		return h.X, nil
	default:
		return 0, fmt.Errorf("%w: unknown source kind %q", dkg.ErrInvalidInput, src.Kind)
	}
}
