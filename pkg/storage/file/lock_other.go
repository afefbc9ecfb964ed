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

//go:build !unix

package file

import "context"

// dirLock is a no-op where flock(2) is unavailable. On these platforms a
// data directory must be used by a single process at a time.
type dirLock struct{}

func openDirLock(string) (*dirLock, error) {
	return &dirLock{}, nil
}

func (*dirLock) acquire(context.Context, bool) error { return nil }

func (*dirLock) release() error { return nil }

func (*dirLock) close() error { return nil }
