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

// Package config loads the dkgctl configuration file.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
)

// Config represents the complete dkgctl configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects the session store
type StorageConfig struct {
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// ProtocolConfig holds protocol parameters shared by every session
type ProtocolConfig struct {
	Hash             string `yaml:"hash"`
	CommitmentPolicy string `yaml:"commitment_policy"`
}

// MetricsConfig toggles Prometheus collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Timeout: 5 * time.Second,
		},
		Protocol: ProtocolConfig{
			Hash:             "streebog256",
			CommitmentPolicy: "overwrite",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from a YAML file on top of Default and applies
// environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies DKG_* environment variables to cfg
func ApplyEnvOverrides(cfg *Config) {
	if backend := os.Getenv("DKG_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if path := os.Getenv("DKG_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if timeout := os.Getenv("DKG_STORE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			log.Printf("Warning: invalid DKG_STORE_TIMEOUT value %q, using %s", timeout, cfg.Storage.Timeout)
		} else {
			cfg.Storage.Timeout = d
		}
	}
	if level := os.Getenv("DKG_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("DKG_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if hash := os.Getenv("DKG_HASH"); hash != "" {
		cfg.Protocol.Hash = hash
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory or file)", c.Storage.Backend)
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage timeout must be positive")
	}

	switch strings.ToLower(c.Protocol.Hash) {
	case "streebog256", "blake3", "sha256":
	default:
		return fmt.Errorf("invalid hash: %s (must be streebog256, blake3, or sha256)", c.Protocol.Hash)
	}

	switch c.Protocol.CommitmentPolicy {
	case "overwrite", "reject":
	default:
		return fmt.Errorf("invalid commitment_policy: %s (must be overwrite or reject)", c.Protocol.CommitmentPolicy)
	}

	return nil
}
