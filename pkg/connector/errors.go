package connector

import (
	"fmt"
	"time"
)

// InvokeError reports a non-retryable failure from a model endpoint.
type InvokeError struct {
	TargetID   string
	StatusCode int
	Message    string
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("target %s returned status %d: %s", e.TargetID, e.StatusCode, e.Message)
}

// TimeoutError reports that the endpoint did not answer in time.
type TimeoutError struct {
	TargetID string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("target %s timed out after %s", e.TargetID, e.Timeout)
}
