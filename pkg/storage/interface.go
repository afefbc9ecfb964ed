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

// Package storage provides an abstraction layer for key-value storage backends.
// It supports both in-memory and file-based storage implementations with a
// common interface, and serializable read-modify-write transactions on top of
// them.
package storage

import (
	"context"
	"io/fs"
)

// Backend defines the interface for storage backends.
// All implementations must be thread-safe.
type Backend interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores the value for the given key with optional metadata.
	// If the key already exists, it will be overwritten.
	Put(key string, value []byte, opts *Options) error

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix.
	// If prefix is empty, all keys are returned.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists in storage.
	Exists(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Reader is the read side of a Backend or transaction.
type Reader interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// List returns all keys with the given prefix.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists.
	Exists(key string) (bool, error)
}

// Tx is a transaction handle. Reads observe the transaction's own staged
// writes. Writes become visible to others only when the transaction commits.
type Tx interface {
	Reader

	// Put stages a write.
	Put(key string, value []byte, opts *Options) error

	// Delete stages a removal. Returns ErrNotFound if the key does not exist.
	Delete(key string) error
}

// Transactional is a Backend that supports serializable transactions.
type Transactional interface {
	Backend

	// Update runs fn in a read-write transaction. Transactions are
	// serialized. Staged writes are applied only if fn returns nil and the
	// context is still live; otherwise nothing is written. Waiting for the
	// transaction lock honours ctx and fails with ErrTimeout.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Options contains optional parameters for storage operations.
type Options struct {
	// Permissions sets the file permissions for file-based storage
	Permissions fs.FileMode
}
