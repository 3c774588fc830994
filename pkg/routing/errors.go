package routing

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry lookups.
var (
	// ErrPoolNotFound is returned when a pool id does not exist.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrTargetNotFound is returned when a target id does not exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrPoolExists is returned when importing a pool whose id is taken.
	ErrPoolExists = errors.New("pool already exists")

	// ErrNoPool is returned when no pool can be resolved for a request.
	ErrNoPool = errors.New("no pool resolvable")
)

// NoCandidatesError is returned when a pool has no active targets to rank.
// It is a routing failure: the caller decides whether to degrade.
type NoCandidatesError struct {
	PoolID string
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("pool %q has no active targets", e.PoolID)
}
