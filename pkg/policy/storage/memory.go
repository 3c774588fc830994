package storage

import (
	"context"
	"sync"

	"tessera-hq/warden/pkg/policy"
)

// MemoryStore is an in-memory policy store for tests and simulation tooling.
type MemoryStore struct {
	mu       sync.RWMutex
	policies map[string]*policy.Policy
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{policies: make(map[string]*policy.Policy)}
}

// SavePolicy inserts or replaces a policy.
func (s *MemoryStore) SavePolicy(_ context.Context, pol *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[pol.PolicyID] = pol
	return nil
}

// DeletePolicy removes a policy by id.
func (s *MemoryStore) DeletePolicy(_ context.Context, policyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, policyID)
	return nil
}

// LoadPolicies returns all stored policies.
func (s *MemoryStore) LoadPolicies(_ context.Context) ([]*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policies := make([]*policy.Policy, 0, len(s.policies))
	for _, pol := range s.policies {
		policies = append(policies, pol)
	}
	return policies, nil
}
