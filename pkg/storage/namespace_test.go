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

package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	assert.Equal(t, "dkg/sessions/s1", Path("dkg", "sessions", "s1"))
	assert.Equal(t, "single", Path("single"))
}

func TestRecordPath(t *testing.T) {
	tests := []struct {
		name   string
		dir    string
		id     string
		expect string
	}{
		{"simple ID", "dkg/sessions/s1/participants", "alice", "dkg/sessions/s1/participants/alice.json"},
		{"UUID-style ID", "recovery", "550e8400-e29b-41d4-a716-446655440000", "recovery/550e8400-e29b-41d4-a716-446655440000.json"},
		{"email-like ID", "holders", "bob@example.com", "holders/bob@example.com.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, RecordPath(tt.dir, tt.id))
		})
	}
}

func TestListIDs(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	_ = backend.Put("p/alice.json", []byte("{}"), nil)
	_ = backend.Put("p/bob.json", []byte("{}"), nil)
	_ = backend.Put("p/nested/carol.json", []byte("{}"), nil)
	_ = backend.Put("p/readme.txt", []byte("x"), nil)
	_ = backend.Put("q/dave.json", []byte("{}"), nil)

	ids, err := ListIDs(backend, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)

	ids, err = ListIDs(backend, "empty")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListDirs(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	_ = backend.Put("r/1/a.json", []byte("{}"), nil)
	_ = backend.Put("r/1/b.json", []byte("{}"), nil)
	_ = backend.Put("r/2/a.json", []byte("{}"), nil)
	_ = backend.Put("r/top.json", []byte("{}"), nil)

	dirs, err := ListDirs(backend, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, dirs)
}

type failingReader struct{}

func (failingReader) Get(string) ([]byte, error) { return nil, errors.New("fail") }
func (failingReader) List(string) ([]string, error) { return nil, errors.New("fail") }
func (failingReader) Exists(string) (bool, error) { return false, errors.New("fail") }

func TestListIDs_Error(t *testing.T) {
	_, err := ListIDs(failingReader{}, "p")
	assert.Error(t, err)
	_, err = ListDirs(failingReader{}, "p")
	assert.Error(t, err)
}
