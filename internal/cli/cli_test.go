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

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/recovery"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion_JSON(t *testing.T) {
	out, _, err := run(t, "version", "-o", "json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got["version"])
	assert.NotEmpty(t, got["go_version"])
}

func TestKeygen(t *testing.T) {
	out, _, err := run(t, "keygen", "-o", "json")
	require.NoError(t, err)

	var got struct {
		PrivateKey string `json:"private_key"`
		PublicKey  string `json:"public_key"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	key, err := gost.Default().ParsePrivateKey(got.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, got.PublicKey, key.Public().Hex())
}

func TestShamir_SplitCombine(t *testing.T) {
	const secret = "00c0ffee0123456789abcdef"
	out, _, err := run(t, "shamir", "split", "--threshold", "3", "--total", "5", secret)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)

	out, _, err = run(t, "shamir", "combine", lines[4], lines[0], lines[2])
	require.NoError(t, err)
	assert.Equal(t, secret, strings.TrimSpace(out))

	_, _, err = run(t, "shamir", "split", "--threshold", "3", "--total", "5", "not-hex")
	assert.Error(t, err)
	_, _, err = run(t, "shamir", "combine", "{broken")
	assert.Error(t, err)
}

func simulate(t *testing.T, args ...string) *SimulationResult {
	t.Helper()
	out, _, err := run(t, append([]string{"simulate", "-o", "json"}, args...)...)
	require.NoError(t, err)
	var res SimulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	return &res
}

func TestSimulate_RecoversGroupKey(t *testing.T) {
	res := simulate(t, "--n", "5", "--t", "3", "--recover", "3")

	assert.Equal(t, string(dkg.StatusFinalized), res.Status)
	assert.Equal(t, 5, res.N)
	assert.Equal(t, 3, res.T)
	assert.Len(t, res.PublicKey, gost.PointHexLen)
	assert.Equal(t, string(recovery.StatusDone), res.RecoveryStatus)
	assert.Equal(t, 3, res.Receipts)
	assert.True(t, res.Recovered)
	assert.Positive(t, res.AuditEvents)
}

func TestSimulate_BelowThreshold(t *testing.T) {
	res := simulate(t, "--n", "4", "--t", "3", "--recover", "2", "--hash", "blake3")

	assert.Equal(t, string(dkg.StatusFinalized), res.Status)
	assert.Equal(t, string(recovery.StatusVerifying), res.RecoveryStatus)
	assert.Equal(t, 2, res.Receipts)
	assert.False(t, res.Recovered)
}

func TestSimulate_WithoutRecovery(t *testing.T) {
	res := simulate(t, "--n", "3", "--t", "2")
	assert.Empty(t, res.RecoveryID)
	assert.Equal(t, string(dkg.StatusFinalized), res.Status)
}

func TestSimulate_InvalidArguments(t *testing.T) {
	_, _, err := run(t, "simulate", "--n", "3", "--t", "2", "--recover", "4")
	assert.ErrorIs(t, err, dkg.ErrInvalidInput)

	_, _, err = run(t, "simulate", "--n", "3", "--t", "4")
	assert.ErrorIs(t, err, dkg.ErrInvalidInput)

	_, _, err = run(t, "simulate", "--storage-backend", "bolt")
	assert.Error(t, err)
}

func TestFileStore_SimulateThenShow(t *testing.T) {
	dir := t.TempDir()
	store := []string{"--storage-backend", "file", "--storage-path", dir}

	res := simulate(t, append(store, "--session", "ceremony-1", "--recover", "3")...)
	require.True(t, res.Recovered)

	out, _, err := run(t, append(store, "session", "show", "ceremony-1", "-o", "json")...)
	require.NoError(t, err)
	var shown struct {
		Session      dkg.Session       `json:"session"`
		Participants []dkg.Participant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, dkg.StatusFinalized, shown.Session.Status)
	assert.Equal(t, res.PublicKey, shown.Session.PublicKey)
	require.Len(t, shown.Participants, 5)
	assert.Equal(t, uint64(1), shown.Participants[0].Index)

	out, _, err = run(t, append(store, "recovery", "show", res.RecoveryID)...)
	require.NoError(t, err)
	assert.Contains(t, out, "DONE")
	assert.Contains(t, out, "3 of 3 required")
	assert.Contains(t, out, participantName(1))

	_, _, err = run(t, append(store, "session", "show", "missing")...)
	assert.ErrorIs(t, err, dkg.ErrNotFound)
}

func TestConfigFile_AndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dkg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: file
  path: `+filepath.Join(dir, "store")+`
protocol:
  hash: sha256
metrics:
  enabled: false
`), 0600))

	cfg := NewConfig()
	cfg.ConfigFile = path
	loaded, err := cfg.Load()
	require.NoError(t, err)
	assert.Equal(t, "file", loaded.Storage.Backend)
	assert.Equal(t, "sha256", loaded.Protocol.Hash)
	assert.False(t, loaded.Metrics.Enabled)

	t.Setenv("DKG_HASH", "blake3")
	t.Setenv("DKG_LOG_LEVEL", "warn")
	cfg = NewConfig()
	cfg.ConfigFile = path
	loaded, err = cfg.Load()
	require.NoError(t, err)
	assert.Equal(t, "blake3", loaded.Protocol.Hash)
	assert.Equal(t, "warn", loaded.Logging.Level)

	t.Setenv("DKG_STORAGE_BACKEND", "bolt")
	_, err = NewConfig().Load()
	assert.Error(t, err)
}

func TestPrintError_JSONCarriesKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter("json", &buf).PrintError(dkg.ErrSessionFull))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["status"])
	assert.Equal(t, "session_full", got["kind"])
}

func TestHealth(t *testing.T) {
	out, _, err := run(t, "health", "--storage-backend", "file", "--storage-path", t.TempDir(), "-o", "json")
	require.NoError(t, err)

	var got struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEqual(t, "unhealthy", got.Status)
	require.Len(t, got.Checks, 1)
	assert.Equal(t, "store", got.Checks[0].Name)
}
