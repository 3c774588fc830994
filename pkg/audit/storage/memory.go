package storage

import (
	"context"
	"sync"
	"time"

	"tessera-hq/warden/pkg/audit"
)

// MemoryStore is an in-memory append-only chain store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*audit.Entry
	byID    map[string]*audit.Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]*audit.Entry{}}
}

// Append commits one entry.
func (s *MemoryStore) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.byID[entry.ID] = entry
	return nil
}

// Last returns the highest-index entry, or nil when empty.
func (s *MemoryStore) Last(_ context.Context) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, nil
	}
	return s.entries[len(s.entries)-1], nil
}

// List returns entries matching the filter in index order.
func (s *MemoryStore) List(_ context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*audit.Entry
	for _, entry := range s.entries {
		if filter.OrgID != "" && entry.OrgID != filter.OrgID {
			continue
		}
		if filter.RuleID != "" && entry.RuleID != filter.RuleID {
			continue
		}
		if filter.Effect != "" && entry.Effect != filter.Effect {
			continue
		}
		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
			if err != nil {
				continue
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}
		matched = append(matched, entry)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// GetByID returns one entry.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byID[id]
	if !ok {
		return nil, audit.ErrEntryNotFound
	}
	return entry, nil
}

// All returns every entry in index order.
func (s *MemoryStore) All(_ context.Context) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Tamper mutates a stored entry in place. It exists only so tests can
// exercise chain verification.
func (s *MemoryStore) Tamper(index int, mutate func(*audit.Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.entries) {
		mutate(s.entries[index])
	}
}
