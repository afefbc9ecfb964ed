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

import (
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Config configures a recovery Manager. Store must be the store holding
// the source DKG sessions and sharings.
type Config struct {
	Store        storage.Transactional
	Curve        *gost.Curve
	StoreTimeout time.Duration
	Logger       logger.Logger
	Audit        audit.AuditAdapter
	Clock        func() time.Time
	NewID        func() string
}

// SetDefaults fills unset optional fields.
func (c *Config) SetDefaults() {
	if c.Curve == nil {
		c.Curve = gost.Default()
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = storage.DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Audit == nil {
		c.Audit = audit.NewNop()
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	if c.NewID == nil {
		c.NewID = func() string { return uuid.New().String() }
	}
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.Store == nil {
		return &dkg.ConfigError{Field: "Store", Message: "required"}
	}
	if c.StoreTimeout < 0 {
		return &dkg.ConfigError{Field: "StoreTimeout", Message: "must not be negative"}
	}
	return nil
}
