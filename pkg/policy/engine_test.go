package policy

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func testPolicy() *Policy {
	return &Policy{
		PolicyID:     "au-compliance",
		Version:      "v1.0.0",
		Title:        "AU compliance baseline",
		Jurisdiction: "AU",
		EvaluationStrategy: EvaluationStrategy{
			Order:              "ASC_PRIORITY",
			ConflictResolution: "FIRST_MATCH",
			DefaultEffect:      EffectAllow,
		},
		Rules: []Rule{
			{
				RuleID:    "HEALTH_NO_OFFSHORE",
				Title:     "Health data stays onshore",
				Condition: `data_class in ['health_record'] && destination_region != 'AU'`,
				Effect:    EffectBlock,
				Priority:  10,
				Severity:  SeverityCritical,
			},
			{
				RuleID:    "CDR_DATA_SOVEREIGNTY",
				Title:     "CDR data requires override",
				Condition: `data_class == 'cdr_data'`,
				Effect:    EffectRequireOverride,
				Priority:  20,
				Overrides: Overrides{Allowed: true, Roles: []string{"compliance", "admin"}, RequireJustification: true},
			},
			{
				RuleID:    "PII_REDACT_ROUTE",
				Title:     "Route PII to redacting pool",
				Condition: `contains_pii`,
				Effect:    EffectRoute,
				RouteTo:   "redact-pool",
				Priority:  30,
			},
		},
	}
}

// TestEvaluate_FirstMatch tests first-match semantics with priority order.
func TestEvaluate_FirstMatch(t *testing.T) {
	engine := NewEngine(nil)

	enriched := map[string]any{
		"data_class":         "health_record",
		"destination_region": "US",
		"contains_pii":       true,
	}

	eval, err := engine.Evaluate(context.Background(), testPolicy(), enriched)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if eval.Decision != EffectBlock {
		t.Errorf("Decision = %s; want BLOCK", eval.Decision)
	}
	if eval.MatchedRule != "HEALTH_NO_OFFSHORE" {
		t.Errorf("MatchedRule = %q; want HEALTH_NO_OFFSHORE", eval.MatchedRule)
	}
	// Trace ends at the first match.
	if len(eval.Trace) != 1 || !eval.Trace[0].Matched {
		t.Errorf("Trace = %+v; want single matched step", eval.Trace)
	}
}

// TestEvaluate_PriorityOrderNotAuthoringOrder tests that a lower priority
// wins even when authored later.
func TestEvaluate_PriorityOrderNotAuthoringOrder(t *testing.T) {
	pol := testPolicy()
	pol.Rules = append(pol.Rules, Rule{
		RuleID:    "EARLY_BIRD",
		Title:     "Authored last, evaluated first",
		Condition: `contains_pii`,
		Effect:    EffectWarnRoute,
		RouteTo:   "warn-pool",
		Priority:  5,
	})

	eval, err := NewEngine(nil).Evaluate(context.Background(), pol, map[string]any{"contains_pii": true})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if eval.MatchedRule != "EARLY_BIRD" {
		t.Errorf("MatchedRule = %q; want EARLY_BIRD", eval.MatchedRule)
	}
}

// TestEvaluate_DefaultFallback tests the default effect when nothing
// matches, with a complete trace.
func TestEvaluate_DefaultFallback(t *testing.T) {
	eval, err := NewEngine(nil).Evaluate(context.Background(), testPolicy(), map[string]any{
		"data_class": "general",
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if eval.Decision != EffectAllow {
		t.Errorf("Decision = %s; want default ALLOW", eval.Decision)
	}
	if eval.MatchedRule != "" {
		t.Errorf("MatchedRule = %q; want empty", eval.MatchedRule)
	}
	if len(eval.Trace) != 3 {
		t.Errorf("Trace has %d steps; want 3 (every rule inspected)", len(eval.Trace))
	}
	for _, step := range eval.Trace {
		if step.Matched {
			t.Errorf("step %+v marked matched in a no-match evaluation", step)
		}
	}
}

// TestEvaluate_DisabledRuleSkipped tests the disabled-rule trace step.
func TestEvaluate_DisabledRuleSkipped(t *testing.T) {
	pol := testPolicy()
	pol.Rules[0].Enabled = boolPtr(false)

	enriched := map[string]any{
		"data_class":         "health_record",
		"destination_region": "US",
	}

	eval, err := NewEngine(nil).Evaluate(context.Background(), pol, enriched)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if eval.Decision != EffectAllow {
		t.Errorf("Decision = %s; disabled rule must not match", eval.Decision)
	}
	first := eval.Trace[0]
	if !first.Skipped || first.Matched || first.Reason != "Rule disabled" {
		t.Errorf("Trace[0] = %+v; want skipped step with 'Rule disabled'", first)
	}
}

// TestEvaluate_ExpressionErrorIsNonMatch tests invariant 5: a broken
// condition never changes the decision path beyond its own non-match.
func TestEvaluate_ExpressionErrorIsNonMatch(t *testing.T) {
	pol := testPolicy()
	pol.Rules[0].Condition = `(broken ==`

	enriched := map[string]any{"contains_pii": true}

	eval, err := NewEngine(nil).Evaluate(context.Background(), pol, enriched)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if !strings.HasPrefix(eval.Trace[0].Reason, "Expression evaluation error:") {
		t.Errorf("Trace[0].Reason = %q; want expression error prefix", eval.Trace[0].Reason)
	}
	// Evaluation continued past the broken rule to the PII route rule.
	if eval.MatchedRule != "PII_REDACT_ROUTE" {
		t.Errorf("MatchedRule = %q; want PII_REDACT_ROUTE", eval.MatchedRule)
	}
}

// TestEvaluate_Deterministic tests invariant 2.
func TestEvaluate_Deterministic(t *testing.T) {
	engine := NewEngine(nil)
	pol := testPolicy()
	enriched := map[string]any{"data_class": "cdr_data", "contains_pii": true}

	first, err := engine.Evaluate(context.Background(), pol, enriched)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := engine.Evaluate(context.Background(), pol, enriched)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("iteration %d differs: %+v vs %+v", i, first, again)
		}
	}
}

// TestEvaluate_StableTieBreak tests that equal priorities keep authoring
// order.
func TestEvaluate_StableTieBreak(t *testing.T) {
	pol := testPolicy()
	pol.Rules = []Rule{
		{RuleID: "A", Title: "a", Condition: "hit", Effect: EffectBlock, Priority: 10},
		{RuleID: "B", Title: "b", Condition: "hit", Effect: EffectRoute, RouteTo: "p", Priority: 10},
	}

	eval, err := NewEngine(nil).Evaluate(context.Background(), pol, map[string]any{"hit": true})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if eval.MatchedRule != "A" {
		t.Errorf("MatchedRule = %q; want A (stable tie-break)", eval.MatchedRule)
	}
}

// TestEvaluate_CancelledContext tests deadline observation between rules.
func TestEvaluate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Evaluate(ctx, testPolicy(), map[string]any{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

// TestResolveResidency tests the resolution chain.
func TestResolveResidency(t *testing.T) {
	tests := []struct {
		name     string
		override ResidencyRequirement
		rule     ResidencyRequirement
		def      ResidencyRequirement
		want     ResidencyRequirement
	}{
		{"policy override wins", ResidencyAULocal, ResidencyAUOnshore, ResidencyOnPremise, ResidencyAULocal},
		{"auto override is ignored", ResidencyAuto, ResidencyAUOnshore, ResidencyOnPremise, ResidencyAUOnshore},
		{"rule requirement second", "", ResidencyAUOnshore, ResidencyOnPremise, ResidencyAUOnshore},
		{"auto rule falls to default", "", ResidencyAuto, ResidencyOnPremise, ResidencyOnPremise},
		{"policy default third", "", "", ResidencyAUOnshore, ResidencyAUOnshore},
		{"auto when nothing set", "", "", "", ResidencyAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := &Policy{ResidencyOverride: tt.override, ResidencyRequirementDefault: tt.def}
			rule := &Rule{ResidencyRequirement: tt.rule}
			if got := ResolveResidency(pol, rule); got != tt.want {
				t.Errorf("ResolveResidency() = %s; want %s", got, tt.want)
			}
		})
	}
}
