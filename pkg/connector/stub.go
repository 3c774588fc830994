package connector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"tessera-hq/warden/pkg/routing"
)

// Stub returns a canned response echoing the routed target. The response is
// deterministic for a given target and payload so simulations and tests are
// repeatable.
type Stub struct{}

// NewStub creates the stub connector.
func NewStub() *Stub {
	return &Stub{}
}

// Invoke produces the stub response.
func (s *Stub) Invoke(ctx context.Context, target *routing.RouteTarget, payload map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	sum := sha256.Sum256(raw)

	return map[string]any{
		"stub":        true,
		"target_id":   target.ID,
		"provider":    target.Provider,
		"model":       target.Model,
		"request_ref": hex.EncodeToString(sum[:8]),
		"message":     fmt.Sprintf("stubbed response from %s", target.ID),
	}, nil
}
