package routing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Store persists pools and targets across restarts. Implementations live in
// pkg/routing/storage.
type Store interface {
	// SavePool inserts or replaces a pool by pool_id.
	SavePool(ctx context.Context, pool *ModelPool) error

	// DeletePool removes a pool and its targets.
	DeletePool(ctx context.Context, poolID string) error

	// SaveTarget inserts or replaces a target by id.
	SaveTarget(ctx context.Context, target *RouteTarget) error

	// DeleteTarget removes a target by id.
	DeleteTarget(ctx context.Context, targetID string) error

	// LoadPools returns all persisted pools.
	LoadPools(ctx context.Context) ([]*ModelPool, error)

	// LoadTargets returns all persisted targets.
	LoadTargets(ctx context.Context) ([]*RouteTarget, error)
}

// tableSnapshot is an immutable view of the routing configuration. Readers
// hold the pointer for the duration of a request.
type tableSnapshot struct {
	pools   map[string]*ModelPool
	targets map[string]*RouteTarget

	// byPool preserves target insertion order within each pool so ranking
	// tie-breaks stay stable across snapshots.
	byPool map[string][]*RouteTarget
}

// Registry is the copy-on-write routing configuration. Reads never lock;
// management operations serialize on a writer mutex and publish a fresh
// snapshot atomically.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[tableSnapshot]
	store   Store
	logger  *slog.Logger

	// order remembers target insertion order per pool across rebuilds.
	order map[string][]string
}

// NewRegistry creates an empty routing registry. The store may be nil for
// purely in-memory operation.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store:  store,
		logger: logger.With("component", "routing.registry"),
		order:  map[string][]string{},
	}
	r.current.Store(&tableSnapshot{
		pools:   map[string]*ModelPool{},
		targets: map[string]*RouteTarget{},
		byPool:  map[string][]*RouteTarget{},
	})
	return r
}

// LoadFromStore replaces the snapshot with the persisted configuration.
func (r *Registry) LoadFromStore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	pools, err := r.store.LoadPools(ctx)
	if err != nil {
		return err
	}
	targets, err := r.store.LoadTargets(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = map[string][]string{}
	poolMap := make(map[string]*ModelPool, len(pools))
	for _, pool := range pools {
		poolMap[pool.PoolID] = pool
	}
	targetMap := make(map[string]*RouteTarget, len(targets))
	for _, target := range targets {
		targetMap[target.ID] = target
		r.order[target.PoolID] = append(r.order[target.PoolID], target.ID)
	}
	r.current.Store(r.buildLocked(poolMap, targetMap))

	r.logger.Info("routing configuration loaded from store",
		"pool_count", len(pools), "target_count", len(targets))
	return nil
}

// ListPools returns all pools ordered by pool_id.
func (r *Registry) ListPools() []*ModelPool {
	snap := r.current.Load()
	pools := make([]*ModelPool, 0, len(snap.pools))
	for _, pool := range snap.pools {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].PoolID < pools[j].PoolID })
	return pools
}

// GetPool returns the pool with the given id.
func (r *Registry) GetPool(poolID string) (*ModelPool, error) {
	pool, ok := r.current.Load().pools[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// ListTargets returns all targets ordered by id.
func (r *Registry) ListTargets() []*RouteTarget {
	snap := r.current.Load()
	targets := make([]*RouteTarget, 0, len(snap.targets))
	for _, target := range snap.targets {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets
}

// GetTarget returns the target with the given id.
func (r *Registry) GetTarget(targetID string) (*RouteTarget, error) {
	target, ok := r.current.Load().targets[targetID]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return target, nil
}

// TargetsForPool returns the pool's targets in insertion order. The order is
// load-bearing: ranking tie-breaks follow it.
func (r *Registry) TargetsForPool(poolID string) ([]*RouteTarget, error) {
	snap := r.current.Load()
	if _, ok := snap.pools[poolID]; !ok {
		return nil, ErrPoolNotFound
	}
	return snap.byPool[poolID], nil
}

// SavePool inserts or replaces a pool.
func (r *Registry) SavePool(ctx context.Context, pool *ModelPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SavePool(ctx, pool); err != nil {
			return err
		}
	}

	snap := r.current.Load()
	pools := clonePools(snap.pools)
	pools[pool.PoolID] = pool
	r.current.Store(r.buildLocked(pools, snap.targets))

	r.logger.Info("pool saved", "pool_id", pool.PoolID, "region", pool.Region)
	return nil
}

// DeletePool removes a pool and its targets.
func (r *Registry) DeletePool(ctx context.Context, poolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.current.Load()
	if _, ok := snap.pools[poolID]; !ok {
		return ErrPoolNotFound
	}

	if r.store != nil {
		if err := r.store.DeletePool(ctx, poolID); err != nil {
			return err
		}
	}

	pools := clonePools(snap.pools)
	delete(pools, poolID)
	targets := cloneTargets(snap.targets)
	for id, target := range targets {
		if target.PoolID == poolID {
			delete(targets, id)
		}
	}
	delete(r.order, poolID)
	r.current.Store(r.buildLocked(pools, targets))

	r.logger.Info("pool deleted", "pool_id", poolID)
	return nil
}

// SaveTarget inserts or replaces a target. Its pool must exist.
func (r *Registry) SaveTarget(ctx context.Context, target *RouteTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.current.Load()
	if _, ok := snap.pools[target.PoolID]; !ok {
		return ErrPoolNotFound
	}

	if r.store != nil {
		if err := r.store.SaveTarget(ctx, target); err != nil {
			return err
		}
	}

	if prev, ok := snap.targets[target.ID]; !ok {
		r.order[target.PoolID] = append(r.order[target.PoolID], target.ID)
	} else if prev.PoolID != target.PoolID {
		r.order[prev.PoolID] = removeID(r.order[prev.PoolID], target.ID)
		r.order[target.PoolID] = append(r.order[target.PoolID], target.ID)
	}

	targets := cloneTargets(snap.targets)
	targets[target.ID] = target
	r.current.Store(r.buildLocked(snap.pools, targets))

	r.logger.Info("target saved", "target_id", target.ID, "pool_id", target.PoolID, "active", target.IsActive)
	return nil
}

// DeleteTarget removes a target.
func (r *Registry) DeleteTarget(ctx context.Context, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.current.Load()
	target, ok := snap.targets[targetID]
	if !ok {
		return ErrTargetNotFound
	}

	if r.store != nil {
		if err := r.store.DeleteTarget(ctx, targetID); err != nil {
			return err
		}
	}

	r.order[target.PoolID] = removeID(r.order[target.PoolID], targetID)
	targets := cloneTargets(snap.targets)
	delete(targets, targetID)
	r.current.Store(r.buildLocked(snap.pools, targets))

	r.logger.Info("target deleted", "target_id", targetID)
	return nil
}

// SetHealth records a health check result for a pool. It is called by the
// out-of-band checker, never by the decision path.
func (r *Registry) SetHealth(poolID string, health PoolHealth) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.current.Load()
	pool, ok := snap.pools[poolID]
	if !ok {
		return ErrPoolNotFound
	}

	updated := *pool
	updated.Health = health
	pools := clonePools(snap.pools)
	pools[poolID] = &updated
	r.current.Store(r.buildLocked(pools, snap.targets))

	return nil
}

// buildLocked assembles a snapshot from pool and target maps, ordering each
// pool's targets by recorded insertion order. Callers must hold mu.
func (r *Registry) buildLocked(pools map[string]*ModelPool, targets map[string]*RouteTarget) *tableSnapshot {
	byPool := make(map[string][]*RouteTarget, len(pools))
	for poolID, ids := range r.order {
		for _, id := range ids {
			if target, ok := targets[id]; ok && target.PoolID == poolID {
				byPool[poolID] = append(byPool[poolID], target)
			}
		}
	}
	return &tableSnapshot{pools: pools, targets: targets, byPool: byPool}
}

func clonePools(src map[string]*ModelPool) map[string]*ModelPool {
	dst := make(map[string]*ModelPool, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneTargets(src map[string]*RouteTarget) map[string]*RouteTarget {
	dst := make(map[string]*RouteTarget, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
