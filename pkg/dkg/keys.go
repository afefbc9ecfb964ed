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
	"regexp"
	"strconv"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Storage layout for DKG records
const (
	// sessionsPrefix is the base prefix for DKG sessions
	sessionsPrefix = "dkg/sessions"

	// sharingsPrefix is the base prefix for threshold sharings
	sharingsPrefix = "dkg/sharings"

	sessionRecord = "session"
	sharingRecord = "sharing"

	participantsDir = "participants"
	commitmentsDir  = "commitments"
	sharesDir       = "shares"
	readyDir        = "ready"
	complaintsDir   = "complaints"
	holdersDir      = "holders"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._@:-]{1,128}$`)

// ValidID reports whether id is an acceptable session or participant
// identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && id != "." && id != ".."
}

func validateID(field, id string) error {
	if !ValidID(id) {
		return invalidInput("%s %q is not a valid identifier", field, id)
	}
	return nil
}

func sessionDir(sid string) string {
	return storage.Path(sessionsPrefix, sid)
}

func epochDir(sid, dir string, epoch uint64) string {
	return storage.Path(sessionDir(sid), dir, strconv.FormatUint(epoch, 10))
}

func sessionKey(sid string) string {
	return storage.RecordPath(sessionDir(sid), sessionRecord)
}

func participantKey(sid, pid string) string {
	return storage.RecordPath(storage.Path(sessionDir(sid), participantsDir), pid)
}

func commitmentKey(sid string, epoch uint64, pid string) string {
	return storage.RecordPath(epochDir(sid, commitmentsDir, epoch), pid)
}

func inboxDir(sid string, epoch uint64, to string) string {
	return storage.Path(epochDir(sid, sharesDir, epoch), to)
}

func shareKey(sid string, epoch uint64, to, mid string) string {
	return storage.RecordPath(inboxDir(sid, epoch, to), mid)
}

func readyKey(sid string, epoch uint64, pid string) string {
	return storage.RecordPath(epochDir(sid, readyDir, epoch), pid)
}

func complaintKey(sid string, epoch uint64, cid string) string {
	return storage.RecordPath(epochDir(sid, complaintsDir, epoch), cid)
}

func sharingDir(id string) string {
	return storage.Path(sharingsPrefix, id)
}

func sharingKey(id string) string {
	return storage.RecordPath(sharingDir(id), sharingRecord)
}

func holderKey(id, pid string) string {
	return storage.RecordPath(storage.Path(sharingDir(id), holdersDir), pid)
}
