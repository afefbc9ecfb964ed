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

// Package health runs named checks against the components a ceremony
// depends on and aggregates their status.
package health

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/storage"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is operating normally.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is not functioning.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the component is functioning but slowly.
	StatusDegraded Status = "degraded"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// CheckFunc performs one health check.
type CheckFunc func(ctx context.Context) CheckResult

// Checker manages a set of named checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// RegisterCheck adds a health check with the given name, replacing any
// check already registered under it.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a health check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Run executes every registered check and returns the results sorted by name.
func (c *Checker) Run(ctx context.Context) []CheckResult {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make([]CheckResult, 0, len(checks))
	for name, check := range checks {
		start := time.Now()
		result := check(ctx)
		result.Latency = time.Since(start)
		if result.Name == "" {
			result.Name = name
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// AggregateStatus returns the overall status based on check results.
// Any unhealthy check makes the whole unhealthy; otherwise any degraded
// check makes it degraded.
func AggregateStatus(results []CheckResult) Status {
	hasDegraded := false
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// checkKey is written and removed by StoreCheck. It lives outside the
// dkg/ and recovery/ namespaces.
const checkKey = "health/check.json"

// StoreCheck returns a check that writes, reads back and deletes a check
// record within timeout. A round trip slower than half the timeout is
// reported as degraded.
func StoreCheck(store storage.Transactional, timeout time.Duration) CheckFunc {
	return func(ctx context.Context) CheckResult {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		marker := []byte(fmt.Sprintf(`{"at":%q}`, start.UTC().Format(time.RFC3339Nano)))
		fail := func(step string, err error) CheckResult {
			return CheckResult{
				Name:    "store",
				Status:  StatusUnhealthy,
				Message: step + " failed",
				Error:   err.Error(),
			}
		}

		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Put(checkKey, marker, nil)
		}); err != nil {
			return fail("write", err)
		}
		var got []byte
		if err := store.View(ctx, func(tx storage.Tx) error {
			var err error
			got, err = tx.Get(checkKey)
			return err
		}); err != nil {
			return fail("read", err)
		}
		if !bytes.Equal(got, marker) {
			return fail("read", fmt.Errorf("%w: check record changed", storage.ErrInvalidData))
		}
		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Delete(checkKey)
		}); err != nil {
			return fail("delete", err)
		}

		if elapsed := time.Since(start); elapsed > timeout/2 {
			return CheckResult{
				Name:    "store",
				Status:  StatusDegraded,
				Message: fmt.Sprintf("round trip took %s", elapsed.Round(time.Millisecond)),
			}
		}
		return CheckResult{Name: "store", Status: StatusHealthy, Message: "read/write round trip ok"}
	}
}
