/*
 * Copyright 2025 Qsome Technologies.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package relay

import (
	"context"
	"sync"
	"time"

	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/models"
)

const (
	defaultCleanupInterval = 60 * time.Minute
	defaultExchangeTTL     = 60 * time.Minute
)

type exchangeKey struct {
	nodeID    string
	requestID string
}

// ExchangeStore correlates dispatched commands with their eventual
// responses, keyed by (node id, request id). Records are consumed exactly
// once or evicted by the periodic sweep.
type ExchangeStore struct {
	mu        sync.RWMutex
	records   map[exchangeKey]*models.ExchangeRecord
	ttl       time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    logger.Logger
	startOnce sync.Once
}

func NewExchangeStore(ttl, interval time.Duration, log logger.Logger) *ExchangeStore {
	if ttl <= 0 {
		ttl = defaultExchangeTTL
	}

	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	return &ExchangeStore{
		records:  make(map[exchangeKey]*models.ExchangeRecord),
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		logger:   log.WithComponent("exchange_store"),
	}
}

// Open inserts a new record for a dispatched command. Reusing a live key
// overwrites the previous record (last writer wins); callers are expected to
// pick fresh request ids.
func (s *ExchangeStore) Open(nodeID, requestID string, cmd *models.CommandBody) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[exchangeKey{nodeID, requestID}] = &models.ExchangeRecord{
		NodeID:    nodeID,
		RequestID: requestID,
		Command:   cmd,
		CreatedAt: s.now(),
	}
}

// Complete records the result for (nodeID, requestID). When no open record
// exists the record is created with only the result populated. That keeps a
// response that raced ahead of its open, or outlived an eviction, pollable
// until the next sweep instead of being lost.
func (s *ExchangeStore) Complete(nodeID, requestID string, result *models.ExchangeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := exchangeKey{nodeID, requestID}
	now := s.now()

	record, exists := s.records[key]
	if !exists {
		record = &models.ExchangeRecord{
			NodeID:    nodeID,
			RequestID: requestID,
			CreatedAt: now,
		}
		s.records[key] = record
	}

	record.Result = result
	record.CompletedAt = now
}

// Consume returns and deletes the record for (nodeID, requestID) only when
// its result is set. An incomplete record is left intact and nil is
// returned, so repeated polls are safe until completion.
func (s *ExchangeStore) Consume(nodeID, requestID string) *models.ExchangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := exchangeKey{nodeID, requestID}

	record, exists := s.records[key]
	if !exists || !record.Completed() {
		return nil
	}

	delete(s.records, key)

	return record
}

// Pending reports whether an open, not yet completed record exists. It lets
// the poll surface distinguish "still running" from "never dispatched",
// though after eviction the two are indistinguishable by design.
func (s *ExchangeStore) Pending(nodeID, requestID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[exchangeKey{nodeID, requestID}]

	return exists && !record.Completed()
}

// Len returns the number of live records.
func (s *ExchangeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Sweep deletes every record created before the cutoff, completed or not,
// and returns the number evicted.
func (s *ExchangeStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0

	for key, record := range s.records {
		if record.CreatedAt.Before(cutoff) {
			delete(s.records, key)

			evicted++
		}
	}

	return evicted
}

// StartJanitor launches the periodic sweep. The first call wins; later
// calls are no-ops. The janitor parks on a ticker and exits when ctx is
// cancelled.
func (s *ExchangeStore) StartJanitor(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.runJanitor(ctx)
	})
}

func (s *ExchangeStore) runJanitor(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("ttl", s.ttl).
		Msg("Exchange janitor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Exchange janitor stopped")
			return
		case <-ticker.C:
			cutoff := s.now().Add(-s.ttl)

			if evicted := s.Sweep(cutoff); evicted > 0 {
				s.logger.Info().
					Int("evicted", evicted).
					Time("cutoff", cutoff).
					Msg("Evicted stale exchange records")
			}
		}
	}
}
