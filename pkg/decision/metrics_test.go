package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"tessera-hq/warden/pkg/routing"
)

// recordingMetrics captures orchestrator observations for assertions.
type recordingMetrics struct {
	decisions  []string
	ruleHits   []string
	overrides  []string
	selections []string
	failures   []string
}

func (r *recordingMetrics) ObserveDecision(policyID, effect string, elapsed time.Duration) {
	r.decisions = append(r.decisions, policyID+"/"+effect)
}

func (r *recordingMetrics) ObserveRuleMatch(policyID, ruleID string) {
	r.ruleHits = append(r.ruleHits, policyID+"/"+ruleID)
}

func (r *recordingMetrics) ObserveOverride(outcome string) {
	r.overrides = append(r.overrides, outcome)
}

func (r *recordingMetrics) ObserveRoutingSelection(poolID, targetID string) {
	r.selections = append(r.selections, poolID+"/"+targetID)
}

func (r *recordingMetrics) ObserveRoutingFailure(poolID string) {
	r.failures = append(r.failures, poolID)
}

// TestEvaluate_FeedsMetrics tests that a live evaluation records the
// decision, the matched rule, and the routing selection.
func TestEvaluate_FeedsMetrics(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	rec := &recordingMetrics{}
	orch.opts.Metrics = rec

	result, err := orch.Evaluate(context.Background(), "au-compliance", map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "Contact me at jane.doe@example.com please."}},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Decision != "ROUTE" {
		t.Fatalf("decision = %s; want ROUTE", result.Decision)
	}

	if len(rec.decisions) != 1 || rec.decisions[0] != "au-compliance/ROUTE" {
		t.Errorf("decisions = %v; want one au-compliance/ROUTE", rec.decisions)
	}
	if len(rec.ruleHits) != 1 || rec.ruleHits[0] != "au-compliance/PII_REDACT_ROUTE" {
		t.Errorf("rule hits = %v; want one au-compliance/PII_REDACT_ROUTE", rec.ruleHits)
	}
	if len(rec.selections) != 1 || rec.selections[0] != "redact-pool/redact-pool-t1" {
		t.Errorf("selections = %v; want one redact-pool/redact-pool-t1", rec.selections)
	}
	if len(rec.failures) != 0 {
		t.Errorf("failures = %v; want none", rec.failures)
	}
}

// TestSimulate_NoDecisionMetrics tests that simulation stays out of the
// decision counters.
func TestSimulate_NoDecisionMetrics(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	rec := &recordingMetrics{}
	orch.opts.Metrics = rec

	_, err := orch.Simulate(context.Background(), "au-compliance", map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(rec.decisions) != 0 {
		t.Errorf("decisions = %v; simulation must not count", rec.decisions)
	}
}

// TestExecuteOverride_FeedsMetrics tests the granted and rejected outcomes.
func TestExecuteOverride_FeedsMetrics(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	rec := &recordingMetrics{}
	orch.opts.Metrics = rec

	_, err := orch.ExecuteOverride(context.Background(), &OverrideRequest{
		PolicyID:      "au-compliance",
		RuleID:        "CDR_DATA_SOVEREIGNTY",
		ActorRole:     "compliance",
		Justification: "approved Q3 audit",
	})
	if err != nil {
		t.Fatalf("ExecuteOverride: %v", err)
	}

	var overrideErr *OverrideError
	_, err = orch.ExecuteOverride(context.Background(), &OverrideRequest{
		PolicyID:  "au-compliance",
		RuleID:    "CDR_DATA_SOVEREIGNTY",
		ActorRole: "viewer",
	})
	if !errors.As(err, &overrideErr) {
		t.Fatalf("err = %v; want OverrideError", err)
	}

	want := []string{"granted", "rejected"}
	if len(rec.overrides) != len(want) {
		t.Fatalf("overrides = %v; want %v", rec.overrides, want)
	}
	for i, outcome := range want {
		if rec.overrides[i] != outcome {
			t.Errorf("overrides[%d] = %s; want %s", i, rec.overrides[i], outcome)
		}
	}
}

// TestExecuteRoute_FailedResolutionSkipsPathCounters tests that a request
// naming an unknown pool records a routing failure but never a path count.
func TestExecuteRoute_FailedResolutionSkipsPathCounters(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	rec := &recordingMetrics{}
	orch.opts.Metrics = rec

	_, err := orch.ExecuteRoute(context.Background(), &routing.Request{PoolID: "no-such-pool"})
	if err == nil {
		t.Fatal("ExecuteRoute succeeded for unknown pool")
	}

	paths := orch.Stats().Paths()
	if paths.CallerPool != 0 || paths.DefaultPool != 0 || paths.PolicyRouted != 0 {
		t.Errorf("paths = %+v; failed resolution must not count a path", paths)
	}
	if len(rec.failures) != 1 || rec.failures[0] != "no-such-pool" {
		t.Errorf("failures = %v; want one no-such-pool", rec.failures)
	}
	if len(rec.selections) != 0 {
		t.Errorf("selections = %v; want none", rec.selections)
	}

	// A successful execution counts exactly one caller-pool path.
	if _, err := orch.ExecuteRoute(context.Background(), &routing.Request{PoolID: "default-pool"}); err != nil {
		t.Fatalf("ExecuteRoute: %v", err)
	}
	paths = orch.Stats().Paths()
	if paths.CallerPool != 1 {
		t.Errorf("caller pool count = %d; want 1", paths.CallerPool)
	}
}
