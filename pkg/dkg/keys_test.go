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

package dkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	valid := []string{"p1", "alice@example.com", "node-7", "a.b", "urn:dkg:1", strings.Repeat("x", 128)}
	for _, id := range valid {
		assert.True(t, ValidID(id), id)
	}
	invalid := []string{"", ".", "..", "a/b", "with space", "tab\t", strings.Repeat("x", 129)}
	for _, id := range invalid {
		assert.False(t, ValidID(id), id)
	}
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "dkg/sessions/s1/session.json", sessionKey("s1"))
	assert.Equal(t, "dkg/sessions/s1/participants/p1.json", participantKey("s1", "p1"))
	assert.Equal(t, "dkg/sessions/s1/commitments/2/p1.json", commitmentKey("s1", 2, "p1"))
	assert.Equal(t, "dkg/sessions/s1/shares/1/p2/m1.json", shareKey("s1", 1, "p2", "m1"))
	assert.Equal(t, "dkg/sessions/s1/ready/1/p1.json", readyKey("s1", 1, "p1"))
	assert.Equal(t, "dkg/sessions/s1/complaints/1/c1.json", complaintKey("s1", 1, "c1"))
	assert.Equal(t, "dkg/sharings/b1/sharing.json", sharingKey("b1"))
	assert.Equal(t, "dkg/sharings/b1/holders/p1.json", holderKey("b1", "p1"))
}
