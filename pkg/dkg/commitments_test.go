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
	"strings"
	"testing"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSubmitCommitments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, c := env.joinedSession(t, 3, 2)
	p1 := c.Parties[0]

	req, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	stored, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Revision)
	assert.Equal(t, req.Commitments, stored.Points)
	assert.Equal(t, env.mgr.Hasher().Name(), stored.HashAlgorithm)

	hash, err := CommitmentHash(env.mgr.Hasher(), req.Commitments)
	require.NoError(t, err)
	assert.Equal(t, hash, stored.Hash)

	got, err := env.mgr.GetCommitment(ctx, s.ID, p1.ID())
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = env.mgr.GetCommitment(ctx, s.ID, "p2")
	assert.ErrorIs(t, err, ErrNotReady)

	session, err := env.mgr.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, session.Status)
}

func TestSubmitCommitments_IdenticalResubmissionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, c := env.joinedSession(t, 2, 2)

	req, err := c.Parties[0].Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	_, err = env.mgr.SubmitCommitments(ctx, s.ID, req)
	require.NoError(t, err)

	before := snapshot(t, env.store)
	again, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Revision)
	assert.Equal(t, before, snapshot(t, env.store))
	assert.Len(t, env.events(t, audit.EventCommitmentSubmit), 1)
	assert.Empty(t, env.events(t, audit.EventCommitmentOverwrite))
}

func TestSubmitCommitments_Overwrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, c := env.joinedSession(t, 2, 2)
	p1 := c.Parties[0]

	first, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	_, err = env.mgr.SubmitCommitments(ctx, s.ID, first)
	require.NoError(t, err)

	second, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	stored, err := env.mgr.SubmitCommitments(ctx, s.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Revision)
	assert.Equal(t, second.Commitments, stored.Points)
	assert.Equal(t, second.Signature, stored.Signature)

	overwrites := env.events(t, audit.EventCommitmentOverwrite)
	require.Len(t, overwrites, 1)
	assert.Equal(t, p1.ID(), overwrites[0].Actor)
	assert.Equal(t, audit.SeverityWarn, overwrites[0].Severity)
	assert.NoError(t, env.mgr.VerifyCommitmentSignature(ctx, s.ID, p1.ID()))
}

func TestSubmitCommitments_RejectPolicy(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.CommitmentPolicy = PolicyReject })
	ctx := context.Background()
	s, c := env.joinedSession(t, 2, 2)
	p1 := c.Parties[0]

	first, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	_, err = env.mgr.SubmitCommitments(ctx, s.ID, first)
	require.NoError(t, err)

	_, err = env.mgr.SubmitCommitments(ctx, s.ID, first)
	require.NoError(t, err, "identical content is not a resubmission")

	second, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	_, err = env.mgr.SubmitCommitments(ctx, s.ID, second)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var pe *ParticipantError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, p1.ID(), pe.Participant)

	got, err := env.mgr.GetCommitment(ctx, s.ID, p1.ID())
	require.NoError(t, err)
	assert.Equal(t, first.Commitments, got.Points)
}

func TestSubmitCommitments_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, c := env.joinedSession(t, 3, 2)
	p1 := c.Parties[0]

	valid, err := p1.Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)

	t.Run("WrongCount", func(t *testing.T) {
		req, err := p1.Commit(s.ID, s.Epoch, 3)
		require.NoError(t, err)
		_, err = env.mgr.SubmitCommitments(ctx, s.ID, req)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("OffCurvePoint", func(t *testing.T) {
		req := valid
		req.Commitments = []string{valid.Commitments[0], strings.Repeat("0", 127) + "1"}
		_, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("BadSignatureEncoding", func(t *testing.T) {
		req := valid
		req.Signature = "abcd"
		_, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("NotJoined", func(t *testing.T) {
		req := valid
		req.Participant = "mallory"
		_, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
		assert.ErrorIs(t, err, ErrParticipantNotJoined)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		_, err := env.mgr.SubmitCommitments(ctx, "missing", valid)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSubmitCommitments_LastCommitmentMovesToCommitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, c := env.committedSession(t, 3, 2)

	got, err := env.mgr.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, got.Status)

	cs, err := env.mgr.ListCommitments(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, cs, 3)
	for i, cm := range cs {
		assert.Equal(t, c.Parties[i].ID(), cm.Participant)
	}

	// Resubmission is still accepted while COMMITTED.
	req, err := c.Parties[2].Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)
	stored, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Revision)
	assert.Len(t, env.events(t, audit.EventSessionTransition), 2)
}

func TestSubmitCommitments_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const n = 8
	s, c := env.joinedSession(t, n, 3)

	reqs := make([]CommitmentRequest, n)
	for i, p := range c.Parties {
		req, err := p.Commit(s.ID, s.Epoch, s.T)
		require.NoError(t, err)
		reqs[i] = req
	}

	var g errgroup.Group
	for _, req := range reqs {
		g.Go(func() error {
			_, err := env.mgr.SubmitCommitments(ctx, s.ID, req)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := env.mgr.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, got.Status)

	committed := 0
	for _, e := range env.events(t, audit.EventSessionTransition) {
		if e.Result == string(StatusCommitted) {
			committed++
		}
	}
	assert.Equal(t, 1, committed)

	cs, err := LoadCommitments(env.store, s.ID, s.Epoch)
	require.NoError(t, err)
	assert.Len(t, cs, n)
}

func TestSubmitCommitments_StoreTimeout(t *testing.T) {
	env := newTestEnv(t)
	s, c := env.joinedSession(t, 2, 2)
	req, err := c.Parties[0].Commit(s.ID, s.Epoch, s.T)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.mgr.SubmitCommitments(ctx, s.ID, req)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, storage.ErrTimeout)
	assert.Equal(t, KindStoreUnavailable, KindOf(err))

	exists, err := env.store.Exists(commitmentKey(s.ID, s.Epoch, c.Parties[0].ID()))
	require.NoError(t, err)
	assert.False(t, exists)
}
