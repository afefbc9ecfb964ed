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
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// getJSON loads and decodes a record. A missing key yields storage.ErrNotFound.
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

// loadAll decodes every record directly under dir.
func loadAll[T any](r storage.Reader, dir string) ([]T, error) {
	ids, err := storage.ListIDs(r, dir)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		var v T
		if err := getJSON(r, storage.RecordPath(dir, id), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadSession reads a session record.
func LoadSession(r storage.Reader, sid string) (*Session, error) {
	var s Session
	if err := getJSON(r, sessionKey(sid), &s); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("session", sid)
		}
		return nil, err
	}
	return &s, nil
}

// LoadParticipant reads a participant record, including one that left.
func LoadParticipant(r storage.Reader, sid, pid string) (*Participant, error) {
	var p Participant
	if err := getJSON(r, participantKey(sid, pid), &p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ParticipantError{Session: sid, Participant: pid, Err: ErrParticipantNotJoined}
		}
		return nil, err
	}
	return &p, nil
}

// LoadActiveParticipant reads a participant and requires it to be joined.
func LoadActiveParticipant(r storage.Reader, sid, pid string) (*Participant, error) {
	p, err := LoadParticipant(r, sid, pid)
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, &ParticipantError{Session: sid, Participant: pid, Err: ErrParticipantNotJoined}
	}
	return p, nil
}

// LoadParticipants returns every participant ordered by index.
func LoadParticipants(r storage.Reader, sid string) ([]Participant, error) {
	ps, err := loadAll[Participant](r, storage.Path(sessionDir(sid), participantsDir))
	if err != nil {
		return nil, err
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Index < ps[j].Index })
	return ps, nil
}

func activeParticipants(ps []Participant) []Participant {
	out := make([]Participant, 0, len(ps))
	for _, p := range ps {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// LoadCommitments returns the commitments of an epoch ordered by participant.
func LoadCommitments(r storage.Reader, sid string, epoch uint64) ([]Commitment, error) {
	cs, err := loadAll[Commitment](r, epochDir(sid, commitmentsDir, epoch))
	if err != nil {
		return nil, err
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Participant < cs[j].Participant })
	return cs, nil
}

func loadCommitment(r storage.Reader, sid string, epoch uint64, pid string) (*Commitment, error) {
	var c Commitment
	if err := getJSON(r, commitmentKey(sid, epoch, pid), &c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ParticipantError{Session: sid, Participant: pid,
				Err: fmt.Errorf("%w: no commitments in epoch %d", ErrNotReady, epoch)}
		}
		return nil, err
	}
	return &c, nil
}

func loadReadiness(r storage.Reader, sid string, epoch uint64) ([]ReadinessRecord, error) {
	rs, err := loadAll[ReadinessRecord](r, epochDir(sid, readyDir, epoch))
	if err != nil {
		return nil, err
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Participant < rs[j].Participant })
	return rs, nil
}

func loadComplaints(r storage.Reader, sid string, epoch uint64) ([]Complaint, error) {
	cs, err := loadAll[Complaint](r, epochDir(sid, complaintsDir, epoch))
	if err != nil {
		return nil, err
	}
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
	return cs, nil
}

// LoadSharing reads a threshold sharing record.
func LoadSharing(r storage.Reader, id string) (*Sharing, error) {
	var s Sharing
	if err := getJSON(r, sharingKey(id), &s); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("sharing", id)
		}
		return nil, err
	}
	return &s, nil
}

// LoadHolder reads one holder of a sharing.
func LoadHolder(r storage.Reader, id, pid string) (*Holder, error) {
	var h Holder
	if err := getJSON(r, holderKey(id, pid), &h); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ParticipantError{Session: id, Participant: pid, Err: ErrParticipantNotJoined}
		}
		return nil, err
	}
	return &h, nil
}

// LoadHolders returns every holder of a sharing ordered by x-coordinate.
func LoadHolders(r storage.Reader, id string) ([]Holder, error) {
	hs, err := loadAll[Holder](r, storage.Path(sharingDir(id), holdersDir))
	if err != nil {
		return nil, err
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].X < hs[j].X })
	return hs, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
