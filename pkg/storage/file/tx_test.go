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

package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestUpdate_CommitAndRollback(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	err = store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Put("dkg/sessions/s1/session.json", []byte(`{"id":"s1"}`), nil); err != nil {
			return err
		}
		return tx.Put("dkg/sessions/s1/participants/alice.json", []byte(`{}`), nil)
	})
	require.NoError(t, err)

	keys, err := store.List("dkg/sessions/s1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dkg/sessions/s1/participants/alice.json", "dkg/sessions/s1/session.json"}, keys)

	boom := errors.New("boom")
	err = store.Update(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.Delete("dkg/sessions/s1/session.json"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.Exists("dkg/sessions/s1/session.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdate_NoTempFilesLeft(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.Update(context.Background(), func(tx storage.Tx) error {
		return tx.Put("recovery/r1/recovery.json", []byte(`{}`), nil)
	})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "recovery", "r1", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = os.Stat(filepath.Join(dir, "recovery", "r1", "recovery.json"))
	require.NoError(t, err)
}

func TestUpdate_ConcurrentIncrements(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	const workers = 20
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return store.Update(ctx, func(tx storage.Tx) error {
				n := 0
				if v, err := tx.Get("counter"); err == nil {
					n, _ = strconv.Atoi(string(v))
				} else if !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				return tx.Put("counter", []byte(strconv.Itoa(n+1)), nil)
			})
		})
	}
	require.NoError(t, g.Wait())

	v, err := store.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(workers), string(v))
}

func TestView_ReadOnly(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Put("a", []byte("1"), nil))
	err = store.View(context.Background(), func(tx storage.Tx) error {
		v, err := tx.Get("a")
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
		return tx.Put("b", []byte("2"), nil)
	})
	assert.ErrorIs(t, err, storage.ErrReadOnly)
}

func TestUpdate_Closed(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Update(context.Background(), func(tx storage.Tx) error { return nil })
	assert.ErrorIs(t, err, storage.ErrClosed)
	_, err = store.Get("a")
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestPut_InvalidKey(t *testing.T) {
	dir := setupTestDir(t)
	store, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.Put("../escape", []byte("x"), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidID)
}
