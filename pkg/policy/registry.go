package policy

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Store persists policies across restarts. Implementations live in
// pkg/policy/storage.
type Store interface {
	// SavePolicy inserts or replaces a policy by policy_id.
	SavePolicy(ctx context.Context, pol *Policy) error

	// DeletePolicy removes a policy by id.
	DeletePolicy(ctx context.Context, policyID string) error

	// LoadPolicies returns all persisted policies.
	LoadPolicies(ctx context.Context) ([]*Policy, error)
}

// snapshot is an immutable view of all published policies. Readers hold the
// pointer for the duration of a request; writers build a replacement and swap
// it atomically.
type snapshot struct {
	byID map[string]*Policy
}

// Registry is the copy-on-write policy store. Reads never lock; management
// operations serialize on a writer mutex, validate strictly, persist, and
// publish a fresh snapshot.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	store   Store
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. The store may be nil for purely
// in-memory operation (tests, simulation tooling).
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store:  store,
		logger: logger.With("component", "policy.registry"),
	}
	r.current.Store(&snapshot{byID: map[string]*Policy{}})
	return r
}

// LoadFromStore replaces the snapshot with the persisted policy set.
func (r *Registry) LoadFromStore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	policies, err := r.store.LoadPolicies(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]*Policy, len(policies))
	for _, pol := range policies {
		byID[pol.PolicyID] = pol
	}
	r.current.Store(&snapshot{byID: byID})

	r.logger.Info("policies loaded from store", "policy_count", len(policies))
	return nil
}

// Seed publishes policies loaded from a file or git source without
// persisting them. Seeded policies are still validated; invalid ones are
// rejected wholesale so a bad bundle never partially applies.
func (r *Registry) Seed(policies []*Policy) error {
	for _, pol := range policies {
		if issues := ValidatePolicy(pol); len(issues) > 0 {
			return &ValidationError{PolicyID: pol.PolicyID, Issues: issues}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cloneLocked()
	for _, pol := range policies {
		next.byID[pol.PolicyID] = pol
	}
	r.current.Store(next)

	r.logger.Info("policies seeded", "policy_count", len(policies))
	return nil
}

// Get returns the policy with the given id from the current snapshot.
func (r *Registry) Get(policyID string) (*Policy, error) {
	pol, ok := r.current.Load().byID[policyID]
	if !ok {
		return nil, ErrPolicyNotFound
	}
	return pol, nil
}

// List returns all policies in the current snapshot, ordered by policy_id
// for stable output.
func (r *Registry) List() []*Policy {
	snap := r.current.Load()
	policies := make([]*Policy, 0, len(snap.byID))
	for _, pol := range snap.byID {
		policies = append(policies, pol)
	}
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].PolicyID < policies[j].PolicyID
	})
	return policies
}

// Import adds a new policy. It fails with ErrPolicyExists when the id is
// taken and with a ValidationError when the schema check fails.
func (r *Registry) Import(ctx context.Context, pol *Policy) error {
	if issues := ValidatePolicy(pol); len(issues) > 0 {
		return &ValidationError{PolicyID: pol.PolicyID, Issues: issues}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.current.Load().byID[pol.PolicyID]; exists {
		return ErrPolicyExists
	}

	if r.store != nil {
		if err := r.store.SavePolicy(ctx, pol); err != nil {
			return err
		}
	}

	next := r.cloneLocked()
	next.byID[pol.PolicyID] = pol
	r.current.Store(next)

	r.logger.Info("policy imported", "policy_id", pol.PolicyID, "version", pol.Version, "rule_count", len(pol.Rules))
	return nil
}

// Update replaces an existing policy. No in-place rule mutation bypasses
// validation: the whole policy is re-validated on every update.
func (r *Registry) Update(ctx context.Context, policyID string, pol *Policy) error {
	pol.PolicyID = policyID
	if issues := ValidatePolicy(pol); len(issues) > 0 {
		return &ValidationError{PolicyID: pol.PolicyID, Issues: issues}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.current.Load().byID[policyID]; !exists {
		return ErrPolicyNotFound
	}

	if r.store != nil {
		if err := r.store.SavePolicy(ctx, pol); err != nil {
			return err
		}
	}

	next := r.cloneLocked()
	next.byID[policyID] = pol
	r.current.Store(next)

	r.logger.Info("policy updated", "policy_id", policyID, "version", pol.Version)
	return nil
}

// Delete removes a policy.
func (r *Registry) Delete(ctx context.Context, policyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.current.Load().byID[policyID]; !exists {
		return ErrPolicyNotFound
	}

	if r.store != nil {
		if err := r.store.DeletePolicy(ctx, policyID); err != nil {
			return err
		}
	}

	next := r.cloneLocked()
	delete(next.byID, policyID)
	r.current.Store(next)

	r.logger.Info("policy deleted", "policy_id", policyID)
	return nil
}

// cloneLocked copies the current snapshot map. Callers must hold mu.
func (r *Registry) cloneLocked() *snapshot {
	cur := r.current.Load()
	byID := make(map[string]*Policy, len(cur.byID)+1)
	for id, pol := range cur.byID {
		byID[id] = pol
	}
	return &snapshot{byID: byID}
}
