package policy

import (
	"errors"
	"fmt"
)

// Sentinel errors for policy lookup and mutation.
var (
	// ErrPolicyNotFound indicates the requested policy does not exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrRuleNotFound indicates the requested rule does not exist in its
	// policy.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrPolicyExists indicates an import collided with an existing
	// policy id.
	ErrPolicyExists = errors.New("policy already exists")
)

// ValidationError wraps the full list of schema violations for a policy.
type ValidationError struct {
	PolicyID string
	Issues   []ValidationIssue
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy %q failed validation with %d issue(s)", e.PolicyID, len(e.Issues))
}
