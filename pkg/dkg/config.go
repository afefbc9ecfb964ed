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
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/audit"
	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Limits on session size.
const (
	MinThreshold    = 2
	MaxParticipants = 255
)

// Notifier is told about share messages after they are committed to the
// recipient's inbox. Delivery is at least once; notification failures are
// logged and never fail the submission.
type Notifier interface {
	Notify(ctx context.Context, msg *ShareMessage) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg *ShareMessage) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, msg *ShareMessage) error {
	return f(ctx, msg)
}

// Config contains configuration for a Manager.
type Config struct {
	// Store holds every session record. Required.
	Store storage.Transactional

	// Curve defaults to the CryptoPro-A GOST curve.
	Curve *gost.Curve

	// Hasher is Hash256. Defaults to Streebog-256.
	Hasher gost.Hasher

	// CommitmentPolicy defaults to PolicyOverwrite.
	CommitmentPolicy CommitmentPolicy

	// StoreTimeout bounds every transaction. Defaults to storage.DefaultTimeout.
	StoreTimeout time.Duration

	// Logger defaults to a no-op logger.
	Logger logger.Logger

	// Audit defaults to a no-op adapter.
	Audit audit.AuditAdapter

	// Notifier is optional.
	Notifier Notifier

	// Clock and NewID are overridable for tests.
	Clock func() time.Time
	NewID func() string
}

// SetDefaults sets default values for unspecified fields.
func (c *Config) SetDefaults() {
	if c.Curve == nil {
		c.Curve = gost.Default()
	}
	if c.Hasher == nil {
		c.Hasher = gost.Streebog256{}
	}
	if c.CommitmentPolicy == "" {
		c.CommitmentPolicy = PolicyOverwrite
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

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Store == nil {
		return &ConfigError{Field: "Store", Message: "required"}
	}
	switch c.CommitmentPolicy {
	case "", PolicyOverwrite, PolicyReject:
	default:
		return &ConfigError{Field: "CommitmentPolicy", Message: "must be overwrite or reject"}
	}
	if c.StoreTimeout < 0 {
		return &ConfigError{Field: "StoreTimeout", Message: "must not be negative"}
	}
	return nil
}
