package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc reports nil when the component is healthy.
type CheckFunc func(ctx context.Context) error

// Result is the outcome of one component check.
type Result struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Status aggregates every component check.
type Status struct {
	Status    string            `json:"status"`
	Checks    map[string]Result `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// Checker runs registered component checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewChecker creates a checker with the given per-check timeout. A zero
// timeout defaults to five seconds.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds a named component check, replacing any previous check
// under the same name.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Liveness reports whether the process itself is up. It runs no component
// checks; a live process always answers ok.
func (c *Checker) Liveness() Status {
	return Status{Status: StatusOK, Timestamp: time.Now().UTC()}
}

// Readiness runs every registered check and reports unhealthy when any
// component fails.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	status := Status{
		Status:    StatusOK,
		Checks:    make(map[string]Result, len(checks)),
		Timestamp: time.Now().UTC(),
	}
	for name, fn := range checks {
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(checkCtx)
		cancel()

		result := Result{Status: StatusOK, Duration: time.Since(start).Round(time.Millisecond).String()}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			status.Status = StatusUnhealthy
		}
		status.Checks[name] = result
	}
	return status
}
