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

// Package file provides a file-based implementation of the storage.Backend interface.
// It uses the os package directly for file operations with RWMutex for thread-safe operations.
//
// Transactions stage their writes in memory. On commit every new value is
// first written to a temporary file; only when all of them are on disk are
// they renamed into place. The previous content of each key is held until
// the commit finishes so that a failed rename can be rolled back, leaving
// the directory as it was before the transaction.
//
// Transactions are serialized within a process by a TxLock and across
// processes by an advisory lock on a file in the root directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

const (
	// Default directory permissions (owner rwx only)
	defaultDirPerms = 0700

	// File permissions based on key prefix
	recoveryFilePerms = 0600 // recovery/* = owner rw only
	dkgFilePerms      = 0640 // dkg/* = owner rw, group r
	defaultPerms      = 0600 // default = owner rw only

	tempSuffix = ".tmp"

	// lockFileName is the advisory lock file in the root directory.
	lockFileName = ".dkg.lock"
)

// Replaced in tests to inject commit failures.
var (
	rename = os.Rename
	remove = os.Remove
)

// FileStorage is a file-based implementation of storage.Transactional.
// It stores key-value pairs as files in a directory hierarchy and is thread-safe.
type FileStorage struct {
	mu      sync.RWMutex
	txLock  *storage.TxLock
	dirLock *dirLock
	rootDir string
	closed  bool
}

// New creates a new FileStorage instance with the specified root directory.
// The root directory is created with 0700 permissions if it doesn't exist.
func New(rootDir string) (storage.Transactional, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}

	// Create root directory if it doesn't exist
	if err := os.MkdirAll(rootDir, defaultDirPerms); err != nil {
		return nil, fmt.Errorf("file storage: failed to create root directory: %w", err)
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to resolve root directory: %w", err)
	}

	lock, err := openDirLock(filepath.Join(absRoot, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to open lock file: %w", err)
	}

	return &FileStorage{
		rootDir: absRoot,
		txLock:  storage.NewTxLock(),
		dirLock: lock,
	}, nil
}

// Get retrieves the value for the given key.
// Returns storage.ErrNotFound if the key does not exist.
func (f *FileStorage) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	filePath := f.keyToPath(key)

	cleanPath := filepath.Clean(filePath)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("file path must be absolute: %s", filePath)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: failed to read key %q: %w", key, err)
	}

	return data, nil
}

// Put stores the value for the given key outside of any transaction.
// File permissions are determined by the key prefix:
//   - recovery/* = 0600 (owner rw only)
//   - dkg/* = 0640 (owner rw, group r)
//   - default = 0600 (owner rw only)
func (f *FileStorage) Put(key string, value []byte, opts *storage.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}
	return f.commit([]storage.Mutation{{Key: key, Value: value, Opts: opts}})
}

// Delete removes the key and its value from storage.
// Returns storage.ErrNotFound if the key does not exist.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}

	if _, err := os.Stat(f.keyToPath(key)); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: failed to stat key %q: %w", key, err)
	}
	return f.commit([]storage.Mutation{{Key: key, Delete: true}})
}

// List returns all keys with the given prefix.
// If prefix is empty, all keys are returned.
// Keys are returned in sorted order.
func (f *FileStorage) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	keys := make([]string, 0)
	lockPath := filepath.Join(f.rootDir, lockFileName)

	err := filepath.WalkDir(f.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories, interrupted writes and the lock file
		if d.IsDir() || strings.HasSuffix(path, tempSuffix) || path == lockPath {
			return nil
		}

		key, err := f.pathToKey(path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)

		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("file storage: failed to list keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Exists checks if a key exists in storage.
func (f *FileStorage) Exists(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false, storage.ErrClosed
	}

	_, err := os.Stat(f.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("file storage: failed to check key %q: %w", key, err)
	}

	return true, nil
}

// Close marks the backend closed and releases the lock file. Records are
// left on disk.
func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.dirLock.close()
}

// Update implements storage.Transactional.
func (f *FileStorage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	return f.withLocks(ctx, true, func() error {
		tx := storage.NewStagedTx(f, false)
		if err := fn(tx); err != nil {
			return err
		}
		if tx.Pending() == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTimeout, err)
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed {
			return storage.ErrClosed
		}
		return f.commit(tx.Mutations())
	})
}

// View implements storage.Transactional.
func (f *FileStorage) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	return f.withLocks(ctx, false, func() error {
		return fn(storage.NewStagedTx(f, true))
	})
}

// withLocks runs fn holding the in-process transaction lock and the
// directory lock, exclusive for writers and shared for readers.
func (f *FileStorage) withLocks(ctx context.Context, exclusive bool, fn func() error) error {
	if err := f.txLock.Acquire(ctx); err != nil {
		return err
	}
	defer f.txLock.Release()

	if f.isClosed() {
		return storage.ErrClosed
	}
	if err := f.dirLock.acquire(ctx, exclusive); err != nil {
		return err
	}
	defer f.dirLock.release()
	return fn()
}

func (f *FileStorage) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

// pendingFile is one key touched by a commit.
type pendingFile struct {
	key     string
	path    string
	tmp     string
	perms   fs.FileMode
	prev    []byte
	existed bool
}

// commit applies mutations all or nothing. The caller holds f.mu.
func (f *FileStorage) commit(muts []storage.Mutation) error {
	pending := make([]pendingFile, 0, len(muts))
	discard := func(ps []pendingFile) {
		for _, p := range ps {
			if p.tmp != "" {
				_ = remove(p.tmp)
			}
		}
	}

	// Phase 1: snapshot current contents and write every new value to a
	// temporary file. Nothing visible has changed yet.
	for _, m := range muts {
		if err := validateStorageKey(m.Key); err != nil {
			discard(pending)
			return fmt.Errorf("file storage: %w: %v", storage.ErrInvalidID, err)
		}
		p := pendingFile{key: m.Key, path: f.keyToPath(m.Key), perms: f.getFilePermissions(m.Key, m.Opts)}
		prev, err := os.ReadFile(p.path)
		switch {
		case err == nil:
			p.prev, p.existed = prev, true
		case !os.IsNotExist(err):
			discard(pending)
			return fmt.Errorf("file storage: failed to read key %q: %w", m.Key, err)
		case m.Delete:
			// Already gone.
			continue
		}
		if !m.Delete {
			p.tmp = p.path + tempSuffix
			if err := writeTemp(p.tmp, m.Value, p.perms); err != nil {
				discard(pending)
				return fmt.Errorf("file storage: failed to write key %q: %w", m.Key, err)
			}
		}
		pending = append(pending, p)
	}

	// Phase 2: move the new values into place, undoing on the first failure.
	for i, p := range pending {
		var err error
		if p.tmp != "" {
			err = rename(p.tmp, p.path)
		} else {
			err = remove(p.path)
		}
		if err != nil {
			discard(pending[i:])
			err = fmt.Errorf("file storage: failed to commit key %q: %w", p.key, err)
			return errors.Join(err, f.rollback(pending[:i]))
		}
	}
	return nil
}

// rollback restores the pre-commit contents of applied keys, newest first.
func (f *FileStorage) rollback(applied []pendingFile) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		p := applied[i]
		if !p.existed {
			if err := remove(p.path); err != nil && !os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("file storage: rollback %q: %w", p.key, err))
			}
			continue
		}
		tmp := p.path + tempSuffix
		err := writeTemp(tmp, p.prev, p.perms)
		if err == nil {
			err = rename(tmp, p.path)
		}
		if err != nil {
			_ = remove(tmp)
			errs = append(errs, fmt.Errorf("file storage: rollback %q: %w", p.key, err))
		}
	}
	return errors.Join(errs...)
}

// writeTemp creates path with data and flushes it to disk. A path that
// cannot be opened is left untouched.
func writeTemp(path string, data []byte, perms fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerms); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perms)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

// keyToPath converts a storage key to a file path.
// Validates key safety before constructing path.
func (f *FileStorage) keyToPath(key string) string {
	if err := validateStorageKey(key); err != nil {
		// Return a safe invalid path that will fail gracefully
		return filepath.Join(f.rootDir, "invalid")
	}
	return filepath.Join(f.rootDir, key)
}

// validateStorageKey allows path separators for organization but blocks
// traversal, absolute paths, null bytes and names the store reserves.
func validateStorageKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("key contains null byte")
	}
	if filepath.IsAbs(key) {
		return fmt.Errorf("key cannot be an absolute path")
	}
	if strings.HasSuffix(key, tempSuffix) || key == lockFileName {
		return fmt.Errorf("key uses a reserved name")
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("key contains path traversal attempt")
	}
	if strings.Contains(cleaned, string(filepath.Separator)+".."+string(filepath.Separator)) ||
		strings.HasSuffix(cleaned, string(filepath.Separator)+"..") {
		return fmt.Errorf("key contains path traversal attempt")
	}

	return nil
}

// pathToKey converts a file path to a storage key.
func (f *FileStorage) pathToKey(path string) (string, error) {
	rel, err := filepath.Rel(f.rootDir, path)
	if err != nil {
		return "", fmt.Errorf("file storage: failed to convert path to key: %w", err)
	}
	return rel, nil
}

// getFilePermissions determines the file permissions based on the key prefix.
func (f *FileStorage) getFilePermissions(key string, opts *storage.Options) fs.FileMode {
	if opts != nil && opts.Permissions != 0 {
		return opts.Permissions
	}
	if strings.HasPrefix(key, "recovery/") {
		return recoveryFilePerms
	}
	if strings.HasPrefix(key, "dkg/") {
		return dkgFilePerms
	}
	return defaultPerms
}
