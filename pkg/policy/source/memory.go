package source

import (
	"context"

	"tessera-hq/warden/pkg/policy"
)

// MemorySource serves a fixed policy set. It exists for tests and for
// embedding policies directly in configuration.
type MemorySource struct {
	policies []*policy.Policy
}

// NewMemorySource creates a source serving the given policies.
func NewMemorySource(policies []*policy.Policy) *MemorySource {
	return &MemorySource{policies: policies}
}

// LoadPolicies returns the fixed policy set.
func (s *MemorySource) LoadPolicies(_ context.Context) ([]*policy.Policy, error) {
	return s.policies, nil
}

// Watch returns a channel that never fires and closes on cancellation.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event)
	go func() {
		<-ctx.Done()
		close(events)
	}()
	return events, nil
}
