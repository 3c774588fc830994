package policy

// Effect is the decision outcome a rule or policy produces.
type Effect string

const (
	EffectAllow           Effect = "ALLOW"
	EffectBlock           Effect = "BLOCK"
	EffectRoute           Effect = "ROUTE"
	EffectRequireOverride Effect = "REQUIRE_OVERRIDE"
	EffectWarnRoute       Effect = "WARN_ROUTE"
)

// ValidEffects lists every accepted effect value.
var ValidEffects = []Effect{
	EffectAllow, EffectBlock, EffectRoute, EffectRequireOverride, EffectWarnRoute,
}

// IsValid reports whether the effect is one of the defined values.
func (e Effect) IsValid() bool {
	for _, v := range ValidEffects {
		if e == v {
			return true
		}
	}
	return false
}

// Severity grades how serious a rule violation is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Category classifies the regulatory domain of a rule.
type Category string

const (
	CategoryPrivacy     Category = "PRIVACY"
	CategoryHealth      Category = "HEALTH"
	CategoryAIRisk      Category = "AI_RISK"
	CategoryCDR         Category = "CDR"
	CategoryAntiDiscrim Category = "ANTI_DISCRIM"
	CategoryTelecom     Category = "TELECOM"
	CategoryCopyright   Category = "COPYRIGHT"
	CategoryExport      Category = "EXPORT"
	CategoryConsumer    Category = "CONSUMER"
)

// ResidencyRequirement constrains where a request may be processed.
type ResidencyRequirement string

const (
	ResidencyAuto      ResidencyRequirement = "AUTO"
	ResidencyAUOnshore ResidencyRequirement = "AU_ONSHORE"
	ResidencyAULocal   ResidencyRequirement = "AU_LOCAL"
	ResidencyOnPremise ResidencyRequirement = "ON_PREMISE"
)

// AppliesTo is an optional scope filter restricting which requests a rule
// covers. Empty sets place no restriction.
type AppliesTo struct {
	DataClasses  []string `json:"data_class,omitempty" yaml:"data_class,omitempty"`
	Domains      []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	Destinations []string `json:"destinations,omitempty" yaml:"destinations,omitempty"`
	Models       []string `json:"models,omitempty" yaml:"models,omitempty"`
	OrgIDs       []string `json:"org_ids,omitempty" yaml:"org_ids,omitempty"`
}

// Overrides describes whether and how a gated decision may be bypassed by a
// human actor.
type Overrides struct {
	// Allowed enables the override protocol for this rule.
	Allowed bool `json:"allowed" yaml:"allowed"`

	// Roles, when non-empty, restricts overrides to the listed actor roles.
	Roles []string `json:"roles,omitempty" yaml:"roles,omitempty"`

	// RequireJustification demands a non-empty justification string.
	RequireJustification bool `json:"require_justification" yaml:"require_justification"`
}

// RuleTest is an embedded self-test: evaluating the request against the
// containing policy must produce the expected effect.
type RuleTest struct {
	Name    string         `json:"name" yaml:"name"`
	Request map[string]any `json:"request" yaml:"request"`
	Expect  Effect         `json:"expect" yaml:"expect"`
}

// RuleMetadata carries ownership and review bookkeeping.
type RuleMetadata struct {
	Owner        string `json:"owner,omitempty" yaml:"owner,omitempty"`
	LastReviewed string `json:"last_reviewed,omitempty" yaml:"last_reviewed,omitempty"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Rule is a named condition that produces an effect when matched.
type Rule struct {
	RuleID      string `json:"rule_id" yaml:"rule_id" validate:"required"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Category     Category `json:"category,omitempty" yaml:"category,omitempty"`
	Jurisdiction string   `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	LegalBasis   []string `json:"legal_basis,omitempty" yaml:"legal_basis,omitempty"`

	AppliesTo *AppliesTo `json:"applies_to,omitempty" yaml:"applies_to,omitempty"`

	// Condition is the boolean expression evaluated against the enriched
	// context. A rule never enters evaluation without one.
	Condition string `json:"condition" yaml:"condition" validate:"required"`

	Effect         Effect   `json:"effect" yaml:"effect" validate:"required"`
	RouteTo        string   `json:"route_to,omitempty" yaml:"route_to,omitempty"`
	Obligations    []string `json:"obligations,omitempty" yaml:"obligations,omitempty"`
	AuditLogFields []string `json:"audit_log_fields,omitempty" yaml:"audit_log_fields,omitempty"`

	Overrides Overrides `json:"overrides" yaml:"overrides"`

	// Priority orders evaluation; lower values are considered first.
	Priority int      `json:"priority" yaml:"priority" validate:"gte=0"`
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`

	// Enabled defaults to true; disabled rules are skipped with a trace
	// step.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	ResidencyRequirement ResidencyRequirement `json:"residency_requirement,omitempty" yaml:"residency_requirement,omitempty"`

	Tests    []RuleTest    `json:"tests,omitempty" yaml:"tests,omitempty"`
	Metadata *RuleMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsEnabled reports whether the rule participates in evaluation.
// An absent enabled flag means enabled.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// EvaluationStrategy controls ordering, conflict resolution, and the
// fallback effect of a policy.
type EvaluationStrategy struct {
	// Order is the rule ordering discipline. Only "ASC_PRIORITY" is
	// defined.
	Order string `json:"order" yaml:"order" validate:"required"`

	// ConflictResolution picks among simultaneously matching rules. Only
	// "FIRST_MATCH" is defined.
	ConflictResolution string `json:"conflict_resolution" yaml:"conflict_resolution" validate:"required"`

	// DefaultEffect is returned when no rule matches.
	DefaultEffect Effect `json:"default_effect" yaml:"default_effect" validate:"required"`
}

// Policy is an ordered, versioned set of rules plus evaluation strategy.
type Policy struct {
	PolicyID     string `json:"policy_id" yaml:"policy_id" validate:"required"`
	Version      string `json:"version" yaml:"version" validate:"required"`
	Title        string `json:"title" yaml:"title" validate:"required"`
	Jurisdiction string `json:"jurisdiction" yaml:"jurisdiction" validate:"required"`

	EvaluationStrategy EvaluationStrategy `json:"evaluation_strategy" yaml:"evaluation_strategy" validate:"required"`

	Rules []Rule `json:"rules" yaml:"rules" validate:"dive"`

	ResidencyRequirementDefault ResidencyRequirement `json:"residency_requirement_default,omitempty" yaml:"residency_requirement_default,omitempty"`
	ResidencyOverride           ResidencyRequirement `json:"residency_override,omitempty" yaml:"residency_override,omitempty"`
}

// FindRule returns the rule with the given id, or nil.
func (p *Policy) FindRule(ruleID string) *Rule {
	for i := range p.Rules {
		if p.Rules[i].RuleID == ruleID {
			return &p.Rules[i]
		}
	}
	return nil
}

// TraceStep records the outcome of inspecting one rule during evaluation.
type TraceStep struct {
	RuleID  string `json:"rule_id"`
	Matched bool   `json:"matched"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Evaluation is the engine's verdict for one request.
type Evaluation struct {
	// Decision is the matched rule's effect, or the policy default.
	Decision Effect `json:"decision"`

	// MatchedRule is the id of the first matching rule; empty when the
	// default effect applied.
	MatchedRule string `json:"matched_rule,omitempty"`

	// Trace lists every rule inspected, in evaluation order, ending with
	// the first match or with the last rule.
	Trace []TraceStep `json:"trace"`
}
