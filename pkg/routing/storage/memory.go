package storage

import (
	"context"
	"sync"

	"tessera-hq/warden/pkg/routing"
)

// MemoryStore is an in-memory routing store for tests and simulation.
type MemoryStore struct {
	mu      sync.Mutex
	pools   map[string]*routing.ModelPool
	targets map[string]*routing.RouteTarget
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:   map[string]*routing.ModelPool{},
		targets: map[string]*routing.RouteTarget{},
	}
}

// SavePool inserts or replaces a pool.
func (s *MemoryStore) SavePool(_ context.Context, pool *routing.ModelPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.PoolID] = pool
	return nil
}

// DeletePool removes a pool and its targets.
func (s *MemoryStore) DeletePool(_ context.Context, poolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, poolID)
	for id, target := range s.targets {
		if target.PoolID == poolID {
			delete(s.targets, id)
		}
	}
	return nil
}

// SaveTarget inserts or replaces a target.
func (s *MemoryStore) SaveTarget(_ context.Context, target *routing.RouteTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[target.ID]; !ok {
		s.order = append(s.order, target.ID)
	}
	s.targets[target.ID] = target
	return nil
}

// DeleteTarget removes a target.
func (s *MemoryStore) DeleteTarget(_ context.Context, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, targetID)
	return nil
}

// LoadPools returns all pools.
func (s *MemoryStore) LoadPools(_ context.Context) ([]*routing.ModelPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pools := make([]*routing.ModelPool, 0, len(s.pools))
	for _, pool := range s.pools {
		pools = append(pools, pool)
	}
	return pools, nil
}

// LoadTargets returns all targets in insertion order.
func (s *MemoryStore) LoadTargets(_ context.Context) ([]*routing.RouteTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make([]*routing.RouteTarget, 0, len(s.targets))
	for _, id := range s.order {
		if target, ok := s.targets[id]; ok {
			targets = append(targets, target)
		}
	}
	return targets, nil
}
