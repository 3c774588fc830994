package connector

import (
	"context"

	"tessera-hq/warden/pkg/routing"
)

// Connector invokes the selected model endpoint. Invocation happens after
// the decision is emitted and the audit entry is written; it may block but
// must not hold any shared locks.
type Connector interface {
	Invoke(ctx context.Context, target *routing.RouteTarget, payload map[string]any) (map[string]any, error)
}
