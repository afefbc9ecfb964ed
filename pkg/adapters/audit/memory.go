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

package audit

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-dkg/pkg/correlation"
)

// MemoryAuditAdapter implements AuditAdapter with in-memory storage.
// It is safe for concurrent use. Events are lost on process restart.
type MemoryAuditAdapter struct {
	mu       sync.RWMutex
	events   map[string]*AuditEvent
	eventIDs []string
}

// NewMemoryAuditAdapter creates a new in-memory audit adapter
func NewMemoryAuditAdapter() *MemoryAuditAdapter {
	return &MemoryAuditAdapter{
		events:   make(map[string]*AuditEvent),
		eventIDs: make([]string, 0, 256),
	}
}

// LogEvent records an audit event in memory. Missing IDs, timestamps and
// correlation IDs are filled in.
func (m *MemoryAuditAdapter) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = correlation.GetCorrelationID(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.events[event.ID]; exists {
		return fmt.Errorf("event already recorded: %s", event.ID)
	}
	m.events[event.ID] = event
	m.eventIDs = append(m.eventIDs, event.ID)
	return nil
}

// GetEvents retrieves audit events based on query parameters
func (m *MemoryAuditAdapter) GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error) {
	if query == nil {
		query = &EventQuery{}
	}

	m.mu.RLock()
	results := make([]*AuditEvent, 0, len(m.eventIDs))
	for _, id := range m.eventIDs {
		if event := m.events[id]; matchesQuery(event, query) {
			results = append(results, event)
		}
	}
	m.mu.RUnlock()

	switch query.OrderBy {
	case "", "timestamp_desc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.After(results[j].Timestamp)
		})
	case "timestamp_asc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.Before(results[j].Timestamp)
		})
	default:
		return nil, fmt.Errorf("unsupported order: %s", query.OrderBy)
	}

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*AuditEvent{}, nil
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// GetEvent retrieves a specific audit event by ID
func (m *MemoryAuditAdapter) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID cannot be empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event not found: %s", eventID)
	}
	return event, nil
}

// GetStatistics returns audit statistics
func (m *MemoryAuditAdapter) GetStatistics(ctx context.Context, query *StatisticsQuery) (*Statistics, error) {
	if query == nil {
		query = &StatisticsQuery{}
	}

	stats := &Statistics{
		EventsByType:     make(map[EventType]int64),
		EventsBySeverity: make(map[EventSeverity]int64),
		EventsByOutcome:  make(map[EventOutcome]int64),
	}
	actorCounts := make(map[string]int64)

	m.mu.RLock()
	for _, event := range m.events {
		if !inWindow(event.Timestamp, query.StartTime, query.EndTime) {
			continue
		}
		stats.TotalEvents++
		stats.EventsByType[event.EventType]++
		stats.EventsBySeverity[event.Severity]++
		stats.EventsByOutcome[event.Outcome]++
		if event.Actor != "" {
			actorCounts[event.Actor]++
		}
	}
	m.mu.RUnlock()

	stats.TopActors = topActors(actorCounts, 10)
	return stats, nil
}

func matchesQuery(event *AuditEvent, query *EventQuery) bool {
	if len(query.EventTypes) > 0 && !slices.Contains(query.EventTypes, event.EventType) {
		return false
	}
	if len(query.Severities) > 0 && !slices.Contains(query.Severities, event.Severity) {
		return false
	}
	if len(query.Outcomes) > 0 && !slices.Contains(query.Outcomes, event.Outcome) {
		return false
	}
	if query.Actor != "" && event.Actor != query.Actor {
		return false
	}
	if query.ResourceID != "" && (event.Resource == nil || event.Resource.ID != query.ResourceID) {
		return false
	}
	if query.CorrelationID != "" && event.CorrelationID != query.CorrelationID {
		return false
	}
	return inWindow(event.Timestamp, query.StartTime, query.EndTime)
}

func inWindow(ts time.Time, start, end *time.Time) bool {
	if start != nil && ts.Before(*start) {
		return false
	}
	if end != nil && ts.After(*end) {
		return false
	}
	return true
}

// topActors returns up to limit actors ordered by count, then name.
func topActors(counts map[string]int64, limit int) []ActorStats {
	actors := make([]ActorStats, 0, len(counts))
	for actor, count := range counts {
		actors = append(actors, ActorStats{Actor: actor, EventCount: count})
	}
	sort.Slice(actors, func(i, j int) bool {
		if actors[i].EventCount != actors[j].EventCount {
			return actors[i].EventCount > actors[j].EventCount
		}
		return actors[i].Actor < actors[j].Actor
	})
	if len(actors) > limit {
		actors = actors[:limit]
	}
	return actors
}
