package decision

import (
	"context"

	"tessera-hq/warden/pkg/policy"
)

// ExecuteOverride applies the override protocol to a gated decision. The
// override succeeds only when the rule allows overrides, the actor's role is
// authorized, and a justification is present when one is demanded. A granted
// override is audited with the effect mapped back to ALLOW or ROUTE and the
// payload augmented with the justification fields.
func (o *Orchestrator) ExecuteOverride(ctx context.Context, req *OverrideRequest) (*OverrideResponse, error) {
	pol, err := o.policies.Get(req.PolicyID)
	if err != nil {
		return nil, err
	}
	rule := pol.FindRule(req.RuleID)
	if rule == nil {
		return nil, policy.ErrRuleNotFound
	}

	if !rule.Overrides.Allowed {
		return nil, o.rejectOverride(&OverrideError{
			Code:    OverrideNotAllowed,
			Message: "rule does not permit overrides",
		})
	}
	if len(rule.Overrides.Roles) > 0 && !containsString(rule.Overrides.Roles, req.ActorRole) {
		return nil, o.rejectOverride(&OverrideError{
			Code:    RoleNotAuthorized,
			Message: "actor role is not authorized to override this rule",
		})
	}
	if rule.Overrides.RequireJustification && req.Justification == "" {
		return nil, o.rejectOverride(&OverrideError{
			Code:    JustificationRequired,
			Message: "override requires a justification",
		})
	}

	decision := DecisionAllowWithOverride
	auditEffect := string(policy.EffectAllow)
	if rule.Effect == policy.EffectRoute {
		decision = DecisionRouteWithOverride
		auditEffect = string(policy.EffectRoute)
	}

	payload := make(map[string]any, len(req.Request)+2)
	for k, v := range req.Request {
		payload[k] = v
	}
	payload["override_justification"] = req.Justification
	payload["override_actor_role"] = req.ActorRole

	auditFields := append([]string{"override_justification", "override_actor_role"}, rule.AuditLogFields...)
	orgID, _ := payload["org_id"].(string)
	entry, err := o.auditLog.LogDecision(ctx, orgID, rule.RuleID, auditEffect, req.ActorID, payload, auditFields)
	if err != nil {
		return nil, err
	}

	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveOverride("granted")
	}

	o.logger.Info("override granted",
		"policy_id", req.PolicyID,
		"rule_id", req.RuleID,
		"actor_role", req.ActorRole,
		"decision", decision,
	)

	return &OverrideResponse{
		Decision:     decision,
		RouteTo:      rule.RouteTo,
		AuditEntry:   entry,
		AuditEntryID: entry.ID,
	}, nil
}

// rejectOverride feeds the rejection counter and passes the error through.
func (o *Orchestrator) rejectOverride(err *OverrideError) *OverrideError {
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveOverride("rejected")
	}
	return err
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
