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
	"strings"
)

// RecordSuffix is the extension of JSON records stored by the protocol packages.
const RecordSuffix = ".json"

// Path joins key segments with "/".
// The path follows the convention: a/b/c
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// RecordPath returns the storage path of a JSON record.
// The path follows the convention: {dir}/{id}.json
func RecordPath(dir, id string) string {
	return dir + "/" + id + RecordSuffix
}

// ListIDs returns the IDs of the records stored directly under dir.
// It strips the "{dir}/" prefix and ".json" suffix and skips nested keys.
// Returns an empty slice if no records exist.
func ListIDs(r Reader, dir string) ([]string, error) {
	prefix := dir + "/"
	keys, err := r.List(prefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, RecordSuffix) {
			continue
		}
		if id := strings.TrimSuffix(rest, RecordSuffix); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListDirs returns the distinct immediate child directory names under dir.
func ListDirs(r Reader, dir string) ([]string, error) {
	prefix := dir + "/"
	keys, err := r.List(prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	dirs := make([]string, 0)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		i := strings.Index(rest, "/")
		if i <= 0 {
			continue
		}
		name := rest[:i]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			dirs = append(dirs, name)
		}
	}
	return dirs, nil
}
