package decision

import (
	"tessera-hq/warden/pkg/audit"
	"tessera-hq/warden/pkg/policy"
	"tessera-hq/warden/pkg/preprocess"
	"tessera-hq/warden/pkg/routing"
)

// Decision values beyond the policy effects, produced by the override
// protocol.
const (
	DecisionAllowWithOverride = "ALLOW_WITH_OVERRIDE"
	DecisionRouteWithOverride = "ROUTE_WITH_OVERRIDE"
)

// OverridesRequired tells the caller what an override needs to succeed.
type OverridesRequired struct {
	Roles                []string `json:"roles,omitempty"`
	RequireJustification bool     `json:"require_justification"`
}

// Result is the assembled outcome of one evaluation.
type Result struct {
	Decision    string             `json:"decision"`
	MatchedRule string             `json:"matched_rule,omitempty"`
	Trace       []policy.TraceStep `json:"trace"`

	ObligationsApplied   []string                    `json:"obligations_applied"`
	RouteTo              string                      `json:"route_to,omitempty"`
	ResidencyRequirement policy.ResidencyRequirement `json:"residency_requirement"`

	OverridesRequired *OverridesRequired `json:"overrides_required,omitempty"`

	RuleInsights []*preprocess.RuleInsight `json:"rule_insights"`

	Routing *routing.Decision `json:"routing,omitempty"`
	Output  map[string]any    `json:"output,omitempty"`

	AuditEntryID string `json:"audit_entry_id,omitempty"`
}

// OverrideRequest asks to bypass a gated decision.
type OverrideRequest struct {
	PolicyID      string         `json:"policy_id"`
	RuleID        string         `json:"rule_id"`
	Request       map[string]any `json:"request"`
	Justification string         `json:"justification"`
	ActorRole     string         `json:"actor_role"`
	ActorID       string         `json:"actor_id"`
}

// OverrideResponse reports a granted override.
type OverrideResponse struct {
	Decision     string       `json:"decision"`
	RouteTo      string       `json:"route_to,omitempty"`
	AuditEntry   *audit.Entry `json:"audit_entry,omitempty"`
	AuditEntryID string       `json:"audit_entry_id"`
}

// RuleTestResult is one embedded self-test outcome.
type RuleTestResult struct {
	Name     string        `json:"name"`
	Expected policy.Effect `json:"expected"`
	Actual   policy.Effect `json:"actual"`
	Pass     bool          `json:"pass"`
}

// RuleTestReport aggregates a rule's self-tests.
type RuleTestReport struct {
	Pass    bool             `json:"pass"`
	Results []RuleTestResult `json:"results"`
}
