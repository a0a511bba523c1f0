package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps results in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]MatchRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]MatchRecord)}
}

// SaveResult stores record, replacing any record with the same ID.
func (s *MemoryStore) SaveResult(ctx context.Context, record MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// ListResults returns up to limit records, newest first.
func (s *MemoryStore) ListResults(ctx context.Context, limit int) ([]MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	s.mu.RLock()
	out := make([]MatchRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EndedAt.Equal(out[j].EndedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].EndedAt.After(out[j].EndedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PlayerRecord totals the stored results for player.
func (s *MemoryStore) PlayerRecord(ctx context.Context, player string) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]MatchRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	return statsFor(player, records), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
