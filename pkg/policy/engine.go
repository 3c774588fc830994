package policy

import (
	"context"
	"log/slog"
	"sort"

	"tessera-hq/warden/pkg/expr"
)

// Engine evaluates policies against enriched contexts. It holds the shared
// expression evaluator so parsed condition ASTs are reused across requests.
type Engine struct {
	evaluator *expr.Evaluator
	logger    *slog.Logger
}

// NewEngine creates a policy evaluation engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		evaluator: expr.NewEvaluator(),
		logger:    logger.With("component", "policy.engine"),
	}
}

// Evaluate runs the policy's rules against the enriched context in ascending
// priority order and returns the first match, or the default effect when no
// enabled rule matches. The trace records every rule inspected.
//
// The deadline is observed between rules, not within a single condition.
func (e *Engine) Evaluate(ctx context.Context, pol *Policy, enriched map[string]any) (*Evaluation, error) {
	rules := orderRules(pol.Rules)
	trace := make([]TraceStep, 0, len(rules))

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !rule.IsEnabled() {
			trace = append(trace, TraceStep{
				RuleID:  rule.RuleID,
				Matched: false,
				Skipped: true,
				Reason:  "Rule disabled",
			})
			continue
		}

		result := e.evaluator.Evaluate(rule.Condition, expr.Context(enriched))
		trace = append(trace, TraceStep{
			RuleID:  rule.RuleID,
			Matched: result.Matched,
			Reason:  result.Reason,
		})

		if result.Matched {
			e.logger.Debug("rule matched",
				"policy_id", pol.PolicyID,
				"rule_id", rule.RuleID,
				"effect", rule.Effect,
			)
			return &Evaluation{
				Decision:    rule.Effect,
				MatchedRule: rule.RuleID,
				Trace:       trace,
			}, nil
		}
	}

	e.logger.Debug("no rule matched, applying default effect",
		"policy_id", pol.PolicyID,
		"default_effect", pol.EvaluationStrategy.DefaultEffect,
	)
	return &Evaluation{
		Decision: pol.EvaluationStrategy.DefaultEffect,
		Trace:    trace,
	}, nil
}

// ResolveResidency applies the residency resolution chain:
// policy override (when set and not AUTO), then the matched rule's
// requirement (when set and not AUTO), then the policy default, then AUTO.
func ResolveResidency(pol *Policy, matched *Rule) ResidencyRequirement {
	if pol.ResidencyOverride != "" && pol.ResidencyOverride != ResidencyAuto {
		return pol.ResidencyOverride
	}
	if matched != nil && matched.ResidencyRequirement != "" && matched.ResidencyRequirement != ResidencyAuto {
		return matched.ResidencyRequirement
	}
	if pol.ResidencyRequirementDefault != "" {
		return pol.ResidencyRequirementDefault
	}
	return ResidencyAuto
}

// orderRules returns the rules sorted ascending by priority. The sort is
// stable so rules sharing a priority keep their authoring order.
func orderRules(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}
