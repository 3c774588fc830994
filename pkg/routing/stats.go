package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsSummary is a point-in-time view of routing activity, served by the
// metrics endpoints.
type StatsSummary struct {
	// TotalDecisions is the total number of rankings produced.
	TotalDecisions int64 `json:"total_decisions"`

	// DecisionsPerPool tracks rankings per pool id.
	DecisionsPerPool map[string]int64 `json:"decisions_per_pool"`

	// SelectionsPerTarget tracks how often each target won a ranking.
	SelectionsPerTarget map[string]int64 `json:"selections_per_target"`

	// Executions is the number of rankings followed by a connector call.
	Executions int64 `json:"executions"`

	// Errors is the total number of routing failures.
	Errors int64 `json:"errors"`

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}

// PathStats is the per-decision-path breakdown: how requests reached a
// ranking (policy route, caller pool, default pool).
type PathStats struct {
	PolicyRouted int64 `json:"policy_routed"`
	CallerPool   int64 `json:"caller_pool"`
	DefaultPool  int64 `json:"default_pool"`
}

// Stats tracks routing activity with atomic counters so the decision path
// never blocks on bookkeeping.
type Stats struct {
	totalDecisions atomic.Int64
	executions     atomic.Int64
	errors         atomic.Int64

	decisionsPerPool    sync.Map // map[string]*atomic.Int64
	selectionsPerTarget sync.Map // map[string]*atomic.Int64

	policyRouted atomic.Int64
	callerPool   atomic.Int64
	defaultPool  atomic.Int64

	mu            sync.RWMutex
	lastResetTime time.Time
}

// NewStats creates a routing statistics tracker.
func NewStats() *Stats {
	return &Stats{lastResetTime: time.Now()}
}

// RecordDecision records one ranking for a pool and its winning target.
func (s *Stats) RecordDecision(poolID, selectedTarget string) {
	s.totalDecisions.Add(1)
	bump(&s.decisionsPerPool, poolID)
	if selectedTarget != "" {
		bump(&s.selectionsPerTarget, selectedTarget)
	}
}

// RecordExecution records a ranking that went on to invoke a connector.
func (s *Stats) RecordExecution() {
	s.executions.Add(1)
}

// RecordError records a routing failure.
func (s *Stats) RecordError() {
	s.errors.Add(1)
}

// RecordPolicyRouted counts a ranking whose pool came from a matched rule's
// route_to.
func (s *Stats) RecordPolicyRouted() { s.policyRouted.Add(1) }

// RecordCallerPool counts a ranking whose pool was named by the caller.
func (s *Stats) RecordCallerPool() { s.callerPool.Add(1) }

// RecordDefaultPool counts a ranking that fell back to the default pool.
func (s *Stats) RecordDefaultPool() { s.defaultPool.Add(1) }

// Summary returns a snapshot of the counters, safe to read without locks.
func (s *Stats) Summary() *StatsSummary {
	s.mu.RLock()
	reset := s.lastResetTime
	s.mu.RUnlock()

	perPool := make(map[string]int64)
	s.decisionsPerPool.Range(func(key, value any) bool {
		perPool[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	perTarget := make(map[string]int64)
	s.selectionsPerTarget.Range(func(key, value any) bool {
		perTarget[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	return &StatsSummary{
		TotalDecisions:      s.totalDecisions.Load(),
		DecisionsPerPool:    perPool,
		SelectionsPerTarget: perTarget,
		Executions:          s.executions.Load(),
		Errors:              s.errors.Load(),
		LastResetTime:       reset,
	}
}

// Paths returns the per-decision-path counters.
func (s *Stats) Paths() *PathStats {
	return &PathStats{
		PolicyRouted: s.policyRouted.Load(),
		CallerPool:   s.callerPool.Load(),
		DefaultPool:  s.defaultPool.Load(),
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.totalDecisions.Store(0)
	s.executions.Store(0)
	s.errors.Store(0)
	s.policyRouted.Store(0)
	s.callerPool.Store(0)
	s.defaultPool.Store(0)

	s.decisionsPerPool.Range(func(key, _ any) bool {
		s.decisionsPerPool.Delete(key)
		return true
	})
	s.selectionsPerTarget.Range(func(key, _ any) bool {
		s.selectionsPerTarget.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}

func bump(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}
