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

// Package dkg implements the coordinator side of a Feldman-verifiable
// distributed key generation on the GOST R 34.10-2012 256-bit curve.
//
// A Manager tracks sessions through OPEN, COMMITTED, READY and FINALIZED
// (or FAILED). Participants join with an end-to-end public key, publish
// signed commitments to a random polynomial, exchange encrypted shares
// through per-recipient inboxes and report the hash of the group public
// key they computed. The Manager never sees a share or private key in
// plaintext; it stores ciphertexts, commitments and hashes.
//
// Every operation is a single transaction on a storage.Transactional
// backend, so concurrent callers observe a serializable history.
//
// Example usage:
//
//	mgr, err := dkg.NewManager(dkg.Config{Store: storage.NewMemory()})
//	session, err := mgr.CreateSession(ctx, dkg.CreateSessionRequest{N: 5, T: 3})
//	alice, err := dkg.NewParty("alice", mgr.Curve(), mgr.Hasher(), rand.Reader)
//	p, err := mgr.Join(ctx, session.ID, alice.JoinRequest(true))
//	alice.Joined(p)
//	req, err := alice.Commit(session.ID, session.Epoch, session.T)
//	_, err = mgr.SubmitCommitments(ctx, session.ID, req)
//
// Errors carry a Kind (see KindOf) from a fixed taxonomy so that callers
// can map them to responses without string matching.
package dkg
