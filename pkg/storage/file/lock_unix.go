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

//go:build unix

package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"golang.org/x/sys/unix"
)

const lockRetryInterval = 10 * time.Millisecond

// dirLock is an advisory flock(2) on a file in the storage root. It keeps
// separate processes sharing a data directory from interleaving transactions.
type dirLock struct {
	file *os.File
}

func openDirLock(path string) (*dirLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, defaultPerms)
	if err != nil {
		return nil, err
	}
	return &dirLock{file: file}, nil
}

// acquire polls for the lock until it is granted or ctx is done.
func (l *dirLock) acquire(ctx context.Context, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	fd := int(l.file.Fd())
	for {
		err := unix.Flock(fd, how|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			return fmt.Errorf("file storage: lock %s: %w", l.file.Name(), err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for %s: %v", storage.ErrTimeout, l.file.Name(), ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *dirLock) release() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}

func (l *dirLock) close() error {
	return l.file.Close()
}
