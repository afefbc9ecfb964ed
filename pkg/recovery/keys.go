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

package recovery

import "github.com/jeremyhahn/go-dkg/pkg/storage"

const (
	recoveryPrefix = "recovery"
	recoveryRecord = "recovery"
	receiptsDir    = "receipts"
)

func recoveryDir(rid string) string {
	return storage.Path(recoveryPrefix, rid)
}

func recoveryKey(rid string) string {
	return storage.RecordPath(recoveryDir(rid), recoveryRecord)
}

func receiptDir(rid string) string {
	return storage.Path(recoveryDir(rid), receiptsDir)
}

func receiptKey(rid, pid string) string {
	return storage.RecordPath(receiptDir(rid), pid)
}
