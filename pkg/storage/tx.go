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
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultTimeout bounds store calls when no explicit timeout is configured.
const DefaultTimeout = 5 * time.Second

// WithTimeout derives a context bounded by d. A non-positive d selects
// DefaultTimeout.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// TxLock serializes transactions. Unlike sync.Mutex, acquiring it honours
// context cancellation.
type TxLock struct {
	ch chan struct{}
}

// NewTxLock returns an unlocked TxLock.
func NewTxLock() *TxLock {
	return &TxLock{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is held or ctx is done.
func (l *TxLock) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// Release unlocks the lock.
func (l *TxLock) Release() {
	<-l.ch
}

// Writer applies committed operations to a backend.
type Writer interface {
	Put(key string, value []byte, opts *Options) error
	Delete(key string) error
}

type stagedOp struct {
	key    string
	value  []byte
	opts   *Options
	delete bool
}

// StagedTx overlays buffered writes on a base Reader. Backends use it to
// implement Update and View.
type StagedTx struct {
	base     Reader
	readOnly bool
	ops      []stagedOp
	latest   map[string]int
}

// NewStagedTx returns a transaction reading through to base.
func NewStagedTx(base Reader, readOnly bool) *StagedTx {
	return &StagedTx{
		base:     base,
		readOnly: readOnly,
		latest:   make(map[string]int),
	}
}

// Get implements Tx.
func (t *StagedTx) Get(key string) ([]byte, error) {
	if i, ok := t.latest[key]; ok {
		op := t.ops[i]
		if op.delete {
			return nil, ErrNotFound
		}
		out := make([]byte, len(op.value))
		copy(out, op.value)
		return out, nil
	}
	return t.base.Get(key)
}

// Exists implements Tx.
func (t *StagedTx) Exists(key string) (bool, error) {
	if i, ok := t.latest[key]; ok {
		return !t.ops[i].delete, nil
	}
	return t.base.Exists(key)
}

// List implements Tx. Keys are returned in sorted order.
func (t *StagedTx) List(prefix string) ([]string, error) {
	keys, err := t.base.List(prefix)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for key, i := range t.latest {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if t.ops[i].delete {
			delete(set, key)
		} else {
			set[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Put implements Tx.
func (t *StagedTx) Put(key string, value []byte, opts *Options) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if key == "" {
		return ErrInvalidID
	}
	data := make([]byte, len(value))
	copy(data, value)
	t.stage(stagedOp{key: key, value: data, opts: opts})
	return nil
}

// Delete implements Tx.
func (t *StagedTx) Delete(key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	exists, err := t.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	t.stage(stagedOp{key: key, delete: true})
	return nil
}

func (t *StagedTx) stage(op stagedOp) {
	t.latest[op.key] = len(t.ops)
	t.ops = append(t.ops, op)
}

// Pending returns the number of keys the transaction would modify.
func (t *StagedTx) Pending() int {
	return len(t.latest)
}

// Mutation is the net effect of a transaction on one key.
type Mutation struct {
	Key    string
	Value  []byte
	Opts   *Options
	Delete bool
}

// Mutations returns the final operation for each touched key in staging
// order. Backends that need all-or-nothing commits across several files
// work from this list instead of Apply.
func (t *StagedTx) Mutations() []Mutation {
	out := make([]Mutation, 0, len(t.latest))
	for i, op := range t.ops {
		if t.latest[op.key] != i {
			continue
		}
		out = append(out, Mutation{Key: op.key, Value: op.value, Opts: op.opts, Delete: op.delete})
	}
	return out
}

// Apply writes the final operation for each touched key in staging order.
// Deletes of keys that vanished meanwhile are ignored.
func (t *StagedTx) Apply(w Writer) error {
	for _, m := range t.Mutations() {
		if m.Delete {
			if err := w.Delete(m.Key); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("apply delete %q: %w", m.Key, err)
			}
			continue
		}
		if err := w.Put(m.Key, m.Value, m.Opts); err != nil {
			return fmt.Errorf("apply put %q: %w", m.Key, err)
		}
	}
	return nil
}
