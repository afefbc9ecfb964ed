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

package gost

import "errors"

var (
	// ErrInvalidPoint indicates a malformed or off-curve point encoding.
	ErrInvalidPoint = errors.New("gost: invalid point")

	// ErrInvalidKey indicates a malformed private or public key.
	ErrInvalidKey = errors.New("gost: invalid key")

	// ErrSignatureInvalid indicates a signature that does not verify.
	ErrSignatureInvalid = errors.New("gost: signature invalid")

	// ErrUnknownHash indicates an unsupported hash algorithm name.
	ErrUnknownHash = errors.New("gost: unknown hash algorithm")
)
