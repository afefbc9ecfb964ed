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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dkg.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "debug"
  format: "json"

storage:
  backend: "file"
  path: "/var/lib/dkg"
  timeout: 3s

protocol:
  hash: "blake3"
  commitment_policy: "reject"

metrics:
  enabled: false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %v, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "/var/lib/dkg" {
		t.Errorf("Storage.Path = %v, want /var/lib/dkg", cfg.Storage.Path)
	}
	if cfg.Storage.Timeout != 3*time.Second {
		t.Errorf("Storage.Timeout = %v, want 3s", cfg.Storage.Timeout)
	}
	if cfg.Protocol.Hash != "blake3" {
		t.Errorf("Protocol.Hash = %v, want blake3", cfg.Protocol.Hash)
	}
	if cfg.Protocol.CommitmentPolicy != "reject" {
		t.Errorf("Protocol.CommitmentPolicy = %v, want reject", cfg.Protocol.CommitmentPolicy)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
}

// TestLoad_PartialFileKeepsDefaults tests that omitted sections fall back to Default
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "warn"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	def := Default()
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %v, want warn", cfg.Logging.Level)
	}
	if cfg.Logging.Format != def.Logging.Format {
		t.Errorf("Logging.Format = %v, want %v", cfg.Logging.Format, def.Logging.Format)
	}
	if cfg.Storage != def.Storage {
		t.Errorf("Storage = %+v, want %+v", cfg.Storage, def.Storage)
	}
	if cfg.Protocol != def.Protocol {
		t.Errorf("Protocol = %+v, want %+v", cfg.Protocol, def.Protocol)
	}
}

// TestLoad_FileNotFound tests loading a non-existent config file
func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/dkg.yaml")
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestLoad_InvalidYAML tests loading an invalid YAML file
func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "file"
  invalid: [unclosed array
`)

	cfg, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestLoad_ValidationFailure tests loading a config that fails validation
func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  backend: "file"
  path: ""
`)

	cfg, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "storage path") {
		t.Errorf("Load() error = %v, want storage path error", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

// TestApplyEnvOverrides tests DKG_* environment variable overrides
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DKG_STORAGE_BACKEND", "file")
	t.Setenv("DKG_STORAGE_PATH", "/tmp/dkg")
	t.Setenv("DKG_STORE_TIMEOUT", "750ms")
	t.Setenv("DKG_LOG_LEVEL", "error")
	t.Setenv("DKG_LOG_FORMAT", "json")
	t.Setenv("DKG_HASH", "sha256")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %v, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "/tmp/dkg" {
		t.Errorf("Storage.Path = %v, want /tmp/dkg", cfg.Storage.Path)
	}
	if cfg.Storage.Timeout != 750*time.Millisecond {
		t.Errorf("Storage.Timeout = %v, want 750ms", cfg.Storage.Timeout)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %v, want error", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
	if cfg.Protocol.Hash != "sha256" {
		t.Errorf("Protocol.Hash = %v, want sha256", cfg.Protocol.Hash)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

// TestApplyEnvOverrides_InvalidTimeout tests that a bad timeout keeps the current value
func TestApplyEnvOverrides_InvalidTimeout(t *testing.T) {
	for _, value := range []string{"soon", "-1s", "0s"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("DKG_STORE_TIMEOUT", value)
			cfg := Default()
			ApplyEnvOverrides(cfg)
			if cfg.Storage.Timeout != 5*time.Second {
				t.Errorf("Storage.Timeout = %v, want 5s", cfg.Storage.Timeout)
			}
		})
	}
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "uppercase level", mutate: func(c *Config) { c.Logging.Level = "INFO" }},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "fatal" }, wantErr: "log level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "console" }, wantErr: "log format"},
		{name: "bad backend", mutate: func(c *Config) { c.Storage.Backend = "bolt" }, wantErr: "storage backend"},
		{name: "file without path", mutate: func(c *Config) { c.Storage.Backend = BackendFile }, wantErr: "storage path"},
		{name: "zero timeout", mutate: func(c *Config) { c.Storage.Timeout = 0 }, wantErr: "timeout"},
		{name: "bad hash", mutate: func(c *Config) { c.Protocol.Hash = "md5" }, wantErr: "hash"},
		{name: "bad policy", mutate: func(c *Config) { c.Protocol.CommitmentPolicy = "merge" }, wantErr: "commitment_policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
