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
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	mgr   *Manager
	store storage.Transactional
	audit *audit.MemoryAuditAdapter
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		store: storage.NewMemory(),
		audit: audit.NewMemoryAuditAdapter(),
	}
	cfg := Config{Store: env.store, Audit: env.audit}
	for _, fn := range mutate {
		fn(&cfg)
	}
	mgr, err := NewManager(cfg)
	require.NoError(t, err)
	env.mgr = mgr
	return env
}

func partyName(i int) string {
	return fmt.Sprintf("p%d", i)
}

// joinedSession creates a session and joins n fresh parties.
func (e *testEnv) joinedSession(t *testing.T, n, threshold int) (*Session, *Ceremony) {
	t.Helper()
	ctx := context.Background()
	c, err := NewCeremony(e.mgr, n, partyName, rand.Reader)
	require.NoError(t, err)
	s, err := e.mgr.CreateSession(ctx, CreateSessionRequest{N: n, T: threshold, Host: "p1"})
	require.NoError(t, err)
	require.NoError(t, c.Join(ctx, s.ID))
	return s, c
}

// committedSession runs a ceremony through the commitment phase.
func (e *testEnv) committedSession(t *testing.T, n, threshold int) (*Session, *Ceremony) {
	t.Helper()
	s, c := e.joinedSession(t, n, threshold)
	require.NoError(t, c.Commit(context.Background(), s))
	return s, c
}

// snapshot returns every key and value in the store.
func snapshot(t *testing.T, store storage.Backend) map[string]string {
	t.Helper()
	keys, err := store.List("")
	require.NoError(t, err)
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := store.Get(k)
		require.NoError(t, err)
		out[k] = string(v)
	}
	return out
}

func (e *testEnv) events(t *testing.T, types ...audit.EventType) []*audit.AuditEvent {
	t.Helper()
	events, err := e.audit.GetEvents(context.Background(), &audit.EventQuery{EventTypes: types, OrderBy: "timestamp_asc"})
	require.NoError(t, err)
	return events
}
