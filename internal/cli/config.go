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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-dkg/internal/config"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/metrics"
	"github.com/jeremyhahn/go-dkg/pkg/recovery"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/jeremyhahn/go-dkg/pkg/storage/file"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool

	v *viper.Viper
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("DKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Config{
		OutputFormat: "text",
		v:            v,
	}
}

// bindFlags registers the settings that may override the configuration
// file and binds them, with their DKG_* environment names, through viper.
func (c *Config) bindFlags(flags *pflag.FlagSet) {
	flags.String("storage-backend", "", "session store (memory, file)")
	flags.String("storage-path", "", "root directory for the file store")
	flags.Duration("store-timeout", 0, "bound on every store transaction")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("hash", "", "Hash256 algorithm (streebog256, blake3, sha256)")

	for key, flag := range map[string]string{
		"storage.backend": "storage-backend",
		"storage.path":    "storage-path",
		"store.timeout":   "store-timeout",
		"log.level":       "log-level",
		"log.format":      "log-format",
		"hash":            "hash",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}
}

// Load builds the typed configuration: defaults, then the configuration
// file, then environment and flags.
func (c *Config) Load() (*config.Config, error) {
	cfg := config.Default()
	if c.ConfigFile != "" {
		loaded, err := config.Load(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.v.IsSet("storage.backend") {
		cfg.Storage.Backend = c.v.GetString("storage.backend")
	}
	if c.v.IsSet("storage.path") {
		cfg.Storage.Path = c.v.GetString("storage.path")
	}
	if c.v.IsSet("store.timeout") {
		cfg.Storage.Timeout = c.v.GetDuration("store.timeout")
	}
	if c.v.IsSet("log.level") {
		cfg.Logging.Level = c.v.GetString("log.level")
	}
	if c.v.IsSet("log.format") {
		cfg.Logging.Format = c.v.GetString("log.format")
	}
	if c.v.IsSet("hash") {
		cfg.Protocol.Hash = c.v.GetString("hash")
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// OpenStore opens the configured session store
func OpenStore(cfg *config.Config) (storage.Transactional, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		store, err := file.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// Runtime is the set of managers a command works with.
type Runtime struct {
	Config   *config.Config
	Store    storage.Transactional
	Logger   logger.Logger
	Audit    *audit.MemoryAuditAdapter
	DKG      *dkg.Manager
	Recovery *recovery.Manager
}

// NewRuntime wires the store, logger, audit trail and managers described
// by cfg. Logs go to logOut.
func NewRuntime(cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, logOut)
	if err != nil {
		return nil, err
	}
	hasher, err := gost.NewHasher(cfg.Protocol.Hash)
	if err != nil {
		return nil, err
	}
	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	trail := audit.NewMemoryAuditAdapter()

	keygen, err := dkg.NewManager(dkg.Config{
		Store:            store,
		Hasher:           hasher,
		CommitmentPolicy: dkg.CommitmentPolicy(cfg.Protocol.CommitmentPolicy),
		StoreTimeout:     cfg.Storage.Timeout,
		Logger:           log,
		Audit:            trail,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	recoveries, err := recovery.NewManager(recovery.Config{
		Store:        store,
		StoreTimeout: cfg.Storage.Timeout,
		Logger:       log,
		Audit:        trail,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Store:    store,
		Logger:   log,
		Audit:    trail,
		DKG:      keygen,
		Recovery: recoveries,
	}, nil
}

// Close releases the store.
func (r *Runtime) Close() error {
	return r.Store.Close()
}
