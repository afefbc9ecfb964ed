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

package vss

import "errors"

var (
	// ErrInsufficientShares is returned when fewer than threshold points are supplied.
	ErrInsufficientShares = errors.New("vss: insufficient shares")

	// ErrDuplicateShareIndex is returned when two points share an x-coordinate.
	ErrDuplicateShareIndex = errors.New("vss: duplicate share index")

	// ErrInvalidShareIndex is returned for x = 0 or a missing x-coordinate.
	ErrInvalidShareIndex = errors.New("vss: invalid share index")

	// ErrInvalidShare is returned for a missing or out-of-range share value.
	ErrInvalidShare = errors.New("vss: invalid share")

	// ErrInvalidThreshold is returned for a threshold below one or a degree mismatch.
	ErrInvalidThreshold = errors.New("vss: invalid threshold")

	// ErrInvalidModulus is returned when a field modulus is not an odd prime.
	ErrInvalidModulus = errors.New("vss: invalid modulus")

	// ErrInvalidScalar is returned for a malformed scalar encoding.
	ErrInvalidScalar = errors.New("vss: invalid scalar")

	// ErrEmptyCommitments is returned when no commitment points are supplied.
	ErrEmptyCommitments = errors.New("vss: empty commitments")
)
