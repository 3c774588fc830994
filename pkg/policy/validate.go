package policy

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"tessera-hq/warden/pkg/expr"
)

// versionPattern is the accepted policy version format.
var versionPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// structValidator checks the required-field tags on Policy and Rule.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidationIssue reports one schema violation with its field path.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidatePolicy validates a policy against the schema. It returns every
// violation found rather than stopping at the first, so callers can surface
// the full list. A nil slice means the policy is valid.
//
// Validation is strict: management operations must reject any policy that
// produces issues.
func ValidatePolicy(pol *Policy) []ValidationIssue {
	var issues []ValidationIssue

	// Struct-tag pass: required fields and numeric bounds.
	if err := structValidator.Struct(pol); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				issues = append(issues, ValidationIssue{
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
		} else {
			issues = append(issues, ValidationIssue{Field: "policy", Message: err.Error()})
		}
	}

	if pol.Version != "" && !versionPattern.MatchString(pol.Version) {
		issues = append(issues, ValidationIssue{
			Field:   "version",
			Message: fmt.Sprintf("version %q does not match v<major>.<minor>.<patch>", pol.Version),
		})
	}

	issues = append(issues, validateStrategy(&pol.EvaluationStrategy)...)
	issues = append(issues, validateRules(pol.Rules)...)

	return issues
}

func validateStrategy(strategy *EvaluationStrategy) []ValidationIssue {
	var issues []ValidationIssue

	if strategy.Order != "" && strategy.Order != "ASC_PRIORITY" {
		issues = append(issues, ValidationIssue{
			Field:   "evaluation_strategy.order",
			Message: fmt.Sprintf("unsupported order %q (only ASC_PRIORITY)", strategy.Order),
		})
	}
	if strategy.ConflictResolution != "" && strategy.ConflictResolution != "FIRST_MATCH" {
		issues = append(issues, ValidationIssue{
			Field:   "evaluation_strategy.conflict_resolution",
			Message: fmt.Sprintf("unsupported conflict resolution %q (only FIRST_MATCH)", strategy.ConflictResolution),
		})
	}
	if strategy.DefaultEffect != "" && !strategy.DefaultEffect.IsValid() {
		issues = append(issues, ValidationIssue{
			Field:   "evaluation_strategy.default_effect",
			Message: fmt.Sprintf("unknown effect %q", strategy.DefaultEffect),
		})
	}

	return issues
}

func validateRules(rules []Rule) []ValidationIssue {
	var issues []ValidationIssue

	seen := make(map[string]bool, len(rules))
	for i := range rules {
		rule := &rules[i]
		prefix := fmt.Sprintf("rules[%d]", i)

		if rule.RuleID != "" {
			if seen[rule.RuleID] {
				issues = append(issues, ValidationIssue{
					Field:   prefix + ".rule_id",
					Message: fmt.Sprintf("duplicate rule_id %q", rule.RuleID),
				})
			}
			seen[rule.RuleID] = true
		}

		if rule.Effect != "" && !rule.Effect.IsValid() {
			issues = append(issues, ValidationIssue{
				Field:   prefix + ".effect",
				Message: fmt.Sprintf("unknown effect %q", rule.Effect),
			})
		}

		if rule.Priority < 0 {
			issues = append(issues, ValidationIssue{
				Field:   prefix + ".priority",
				Message: "priority must be nonnegative",
			})
		}

		// A rule never enters evaluation without a parseable condition.
		if rule.Condition != "" {
			if _, err := expr.Parse(rule.Condition); err != nil {
				issues = append(issues, ValidationIssue{
					Field:   prefix + ".condition",
					Message: fmt.Sprintf("condition does not parse: %v", err),
				})
			}
		}

		if (rule.Effect == EffectRoute || rule.Effect == EffectWarnRoute) && rule.RouteTo == "" {
			issues = append(issues, ValidationIssue{
				Field:   prefix + ".route_to",
				Message: fmt.Sprintf("effect %s requires route_to", rule.Effect),
			})
		}
	}

	return issues
}
