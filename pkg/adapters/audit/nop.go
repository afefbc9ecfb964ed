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
)

// NopAdapter accepts and discards every event.
type NopAdapter struct{}

// NewNop returns an adapter that records nothing.
func NewNop() AuditAdapter {
	return NopAdapter{}
}

func (NopAdapter) LogEvent(context.Context, *AuditEvent) error { return nil }

func (NopAdapter) GetEvents(context.Context, *EventQuery) ([]*AuditEvent, error) {
	return []*AuditEvent{}, nil
}

func (NopAdapter) GetEvent(_ context.Context, eventID string) (*AuditEvent, error) {
	return nil, fmt.Errorf("event not found: %s", eventID)
}

func (NopAdapter) GetStatistics(context.Context, *StatisticsQuery) (*Statistics, error) {
	return &Statistics{
		EventsByType:     map[EventType]int64{},
		EventsBySeverity: map[EventSeverity]int64{},
		EventsByOutcome:  map[EventOutcome]int64{},
	}, nil
}
