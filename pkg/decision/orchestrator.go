package decision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tessera-hq/warden/pkg/audit"
	"tessera-hq/warden/pkg/connector"
	"tessera-hq/warden/pkg/policy"
	"tessera-hq/warden/pkg/preprocess"
	"tessera-hq/warden/pkg/routing"
)

// defaultRuleID names the chain entry when the default effect applied and no
// rule matched.
const defaultRuleID = "DEFAULT_EFFECT"

// Options tunes the orchestrator.
type Options struct {
	// DefaultPool receives executable decisions that name no pool.
	DefaultPool string

	// StubResponses serves a deterministic stub when no live connector is
	// configured instead of failing the invocation.
	StubResponses bool

	// Metrics receives decision and routing observations. A nil sink
	// disables them.
	Metrics Metrics
}

// Metrics is the observation surface the orchestrator feeds.
// *metrics.Collector satisfies it.
type Metrics interface {
	ObserveDecision(policyID, effect string, elapsed time.Duration)
	ObserveRuleMatch(policyID, ruleID string)
	ObserveOverride(outcome string)
	ObserveRoutingSelection(poolID, targetID string)
	ObserveRoutingFailure(poolID string)
}

// Orchestrator runs the decision pipeline over shared configuration
// snapshots. It is safe for concurrent use; per-request state never escapes
// a call.
type Orchestrator struct {
	preprocessor *preprocess.Preprocessor
	engine       *policy.Engine
	policies     *policy.Registry
	routes       *routing.Registry
	scorer       *routing.Scorer
	stats        *routing.Stats
	auditLog     *audit.Log
	connector    connector.Connector
	opts         Options
	logger       *slog.Logger
}

// New creates the orchestrator. The connector may be nil; with
// Options.StubResponses set, a deterministic stub stands in for it.
func New(policies *policy.Registry, routes *routing.Registry, auditLog *audit.Log, conn connector.Connector, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if conn == nil && opts.StubResponses {
		conn = connector.NewStub()
	}
	return &Orchestrator{
		preprocessor: preprocess.New(),
		engine:       policy.NewEngine(logger),
		policies:     policies,
		routes:       routes,
		scorer:       routing.NewScorer(logger),
		stats:        routing.NewStats(),
		auditLog:     auditLog,
		connector:    conn,
		opts:         opts,
		logger:       logger.With("component", "decision.orchestrator"),
	}
}

// Stats exposes the routing counters for the metrics endpoints.
func (o *Orchestrator) Stats() *routing.Stats {
	return o.stats
}

// Routes exposes the route table for the management endpoints.
func (o *Orchestrator) Routes() *routing.Registry {
	return o.routes
}

// Evaluate runs the full pipeline and persists the decision to the audit
// chain. The order is preprocess, evaluate, route, audit append, invoke; the
// deadline is observed between stages.
func (o *Orchestrator) Evaluate(ctx context.Context, policyID string, request map[string]any) (*Result, error) {
	return o.run(ctx, policyID, request, false)
}

// Simulate runs the pipeline without appending to the audit chain or
// invoking a connector. The decision, trace, and ranking are identical to a
// live evaluation of the same request.
func (o *Orchestrator) Simulate(ctx context.Context, policyID string, request map[string]any) (*Result, error) {
	return o.run(ctx, policyID, request, true)
}

func (o *Orchestrator) run(ctx context.Context, policyID string, request map[string]any, simulate bool) (*Result, error) {
	started := time.Now()
	pol, err := o.policies.Get(policyID)
	if err != nil {
		return nil, err
	}

	enriched := o.preprocessor.Enrich(request)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eval, err := o.engine.Evaluate(ctx, pol, enriched)
	if err != nil {
		return nil, err
	}

	result := o.assemble(pol, eval, enriched)

	if isExecutable(result.Decision) {
		if err := o.route(ctx, result, request); err != nil {
			// Routing failure is surfaced to the caller, who decides
			// whether to degrade. The decision itself stands.
			o.stats.RecordError()
			return result, err
		}
	}

	if simulate {
		return result, nil
	}

	entry, err := o.appendAudit(ctx, pol, result, enriched)
	if err != nil {
		// The tamper-evident invariant holds: an unrecorded decision is
		// never delivered.
		return nil, err
	}
	result.AuditEntryID = entry.ID

	if isExecutable(result.Decision) {
		if err := o.invoke(ctx, result, request); err != nil {
			return nil, err
		}
	}

	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveDecision(policyID, result.Decision, time.Since(started))
		if result.MatchedRule != "" {
			o.opts.Metrics.ObserveRuleMatch(policyID, result.MatchedRule)
		}
	}

	o.logger.Info("decision complete",
		"policy_id", policyID,
		"decision", result.Decision,
		"matched_rule", result.MatchedRule,
		"audit_entry_id", result.AuditEntryID,
	)
	return result, nil
}

// assemble derives the response fields from the evaluation and the enriched
// context.
func (o *Orchestrator) assemble(pol *policy.Policy, eval *policy.Evaluation, enriched map[string]any) *Result {
	result := &Result{
		Decision:           string(eval.Decision),
		MatchedRule:        eval.MatchedRule,
		Trace:              eval.Trace,
		ObligationsApplied: []string{},
	}

	var matched *policy.Rule
	if eval.MatchedRule != "" {
		matched = pol.FindRule(eval.MatchedRule)
	}
	if matched != nil {
		if len(matched.Obligations) > 0 {
			result.ObligationsApplied = matched.Obligations
		}
		result.RouteTo = matched.RouteTo
		if eval.Decision == policy.EffectRequireOverride {
			result.OverridesRequired = &OverridesRequired{
				Roles:                matched.Overrides.Roles,
				RequireJustification: matched.Overrides.RequireJustification,
			}
		}
	}
	result.ResidencyRequirement = policy.ResolveResidency(pol, matched)

	if insights, ok := enriched[preprocess.InsightsKey].([]*preprocess.RuleInsight); ok {
		for _, insight := range insights {
			insight.Matched = insight.RuleID == eval.MatchedRule
		}
		result.RuleInsights = insights
	} else {
		result.RuleInsights = []*preprocess.RuleInsight{}
	}

	return result
}

// route ranks the target pool for an executable decision. Pool resolution:
// the matched rule's route_to, then the caller's model_pool, then the
// configured default.
func (o *Orchestrator) route(ctx context.Context, result *Result, request map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	poolID := result.RouteTo
	recordPath := o.stats.RecordPolicyRouted
	if poolID == "" {
		if caller, ok := request["model_pool"].(string); ok && caller != "" {
			poolID = caller
			recordPath = o.stats.RecordCallerPool
		} else if o.opts.DefaultPool != "" {
			poolID = o.opts.DefaultPool
			recordPath = o.stats.RecordDefaultPool
		}
	}
	if poolID == "" {
		return routing.ErrNoPool
	}

	pref := preferenceFromRequest(request, result.ResidencyRequirement)
	ranked, err := o.rank(poolID, pref)
	if err != nil {
		return err
	}

	// The path breakdown counts requests that actually ranked; failed
	// resolutions stay out of it.
	recordPath()
	result.Routing = ranked
	o.stats.RecordDecision(poolID, ranked.Candidates[0].TargetID)
	return nil
}

// rank resolves the pool and ranks its targets, feeding the routing metrics
// on both outcomes.
func (o *Orchestrator) rank(poolID string, pref *routing.Preference) (*routing.Decision, error) {
	pool, err := o.routes.GetPool(poolID)
	if err != nil {
		o.observeRoutingFailure(poolID)
		return nil, err
	}
	targets, err := o.routes.TargetsForPool(poolID)
	if err != nil {
		o.observeRoutingFailure(poolID)
		return nil, err
	}
	ranked, err := o.scorer.Rank(pool, targets, pref)
	if err != nil {
		o.observeRoutingFailure(poolID)
		return nil, err
	}
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveRoutingSelection(poolID, ranked.Candidates[0].TargetID)
	}
	return ranked, nil
}

func (o *Orchestrator) observeRoutingFailure(poolID string) {
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveRoutingFailure(poolID)
	}
}

// appendAudit writes the chain entry for a completed evaluation.
func (o *Orchestrator) appendAudit(ctx context.Context, pol *policy.Policy, result *Result, enriched map[string]any) (*audit.Entry, error) {
	ruleID := result.MatchedRule
	var auditFields []string
	if ruleID == "" {
		ruleID = defaultRuleID
	} else if rule := pol.FindRule(ruleID); rule != nil {
		auditFields = rule.AuditLogFields
	}

	payload := make(map[string]any, len(enriched))
	for k, v := range enriched {
		if k == preprocess.InsightsKey {
			continue
		}
		payload[k] = v
	}

	orgID, _ := enriched["org_id"].(string)
	actorID, _ := enriched["actor_id"].(string)
	return o.auditLog.LogDecision(ctx, orgID, ruleID, result.Decision, actorID, payload, auditFields)
}

// invoke hands the request to the selected target's connector. It runs after
// the audit entry is committed and holds no shared locks.
func (o *Orchestrator) invoke(ctx context.Context, result *Result, request map[string]any) error {
	if o.connector == nil || result.Routing == nil {
		return nil
	}

	selected := result.Routing.Candidates[0]
	target, err := o.routes.GetTarget(selected.TargetID)
	if err != nil {
		return err
	}

	output, err := o.connector.Invoke(ctx, target, request)
	if err != nil {
		o.stats.RecordError()
		return err
	}
	result.Output = output
	o.stats.RecordExecution()
	return nil
}

// ExecuteRoute ranks a pool directly, without a policy decision, and hands
// the payload to the selected target's connector. The pool falls back to
// the configured default when the caller names none.
func (o *Orchestrator) ExecuteRoute(ctx context.Context, req *routing.Request) (*routing.Response, error) {
	poolID := req.PoolID
	recordPath := o.stats.RecordCallerPool
	if poolID == "" {
		poolID = o.opts.DefaultPool
		recordPath = o.stats.RecordDefaultPool
	}
	if poolID == "" {
		return nil, routing.ErrNoPool
	}

	ranked, err := o.rank(poolID, req.Preferences)
	if err != nil {
		return nil, err
	}
	recordPath()
	o.stats.RecordDecision(poolID, ranked.Candidates[0].TargetID)

	resp := &routing.Response{Decision: ranked}
	if o.connector != nil {
		target, err := o.routes.GetTarget(ranked.Candidates[0].TargetID)
		if err != nil {
			return nil, err
		}
		output, err := o.connector.Invoke(ctx, target, req.Payload)
		if err != nil {
			o.stats.RecordError()
			return nil, err
		}
		resp.Output = output
		o.stats.RecordExecution()
	}
	return resp, nil
}

// PreviewRanking ranks a pool's targets against the given preferences
// without invoking any connector or touching the counters.
func (o *Orchestrator) PreviewRanking(poolID string, pref *routing.Preference) (*routing.Decision, error) {
	pool, err := o.routes.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	targets, err := o.routes.TargetsForPool(poolID)
	if err != nil {
		return nil, err
	}
	return o.scorer.Rank(pool, targets, pref)
}

// TestRule runs a rule's embedded self-tests, plus an optional ad-hoc
// request, through the containing policy.
func (o *Orchestrator) TestRule(ctx context.Context, policyID, ruleID string, request map[string]any) (*RuleTestReport, error) {
	pol, err := o.policies.Get(policyID)
	if err != nil {
		return nil, err
	}
	rule := pol.FindRule(ruleID)
	if rule == nil {
		return nil, policy.ErrRuleNotFound
	}

	report := &RuleTestReport{Pass: true}
	runOne := func(name string, req map[string]any, expect policy.Effect) error {
		enriched := o.preprocessor.Enrich(req)
		eval, err := o.engine.Evaluate(ctx, pol, enriched)
		if err != nil {
			return err
		}
		pass := eval.Decision == expect
		if !pass {
			report.Pass = false
		}
		report.Results = append(report.Results, RuleTestResult{
			Name:     name,
			Expected: expect,
			Actual:   eval.Decision,
			Pass:     pass,
		})
		return nil
	}

	for _, test := range rule.Tests {
		if err := runOne(test.Name, test.Request, test.Expect); err != nil {
			return nil, err
		}
	}
	if request != nil {
		if err := runOne("ad-hoc request", request, rule.Effect); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// isExecutable reports whether a decision proceeds to routing.
func isExecutable(decision string) bool {
	switch decision {
	case string(policy.EffectAllow), string(policy.EffectRoute), string(policy.EffectWarnRoute),
		DecisionAllowWithOverride, DecisionRouteWithOverride:
		return true
	}
	return false
}

// preferenceFromRequest builds routing preferences from the caller's
// routing_preferences block plus the resolved residency requirement.
func preferenceFromRequest(request map[string]any, residency policy.ResidencyRequirement) *routing.Preference {
	pref := &routing.Preference{}
	if block, ok := request["routing_preferences"].(map[string]any); ok {
		pref.PreferRegion, _ = block["prefer_region"].(string)
		pref.Provider, _ = block["provider"].(string)
		pref.MinimizeLatency, _ = block["minimize_latency"].(bool)
		pref.ComplianceTags = anyToStrings(block["compliance_tags"])
		pref.InfoTypes = anyToStrings(block["info_types"])
		pref.RequiredContextWindowTokens = anyToInt(block["required_context_window_tokens"])
		pref.ModelStrength, _ = block["model_strength"].(string)
		pref.RequiredDataResidency, _ = block["required_data_residency"].(string)
		pref.PreferredDataResidency = anyToStrings(block["preferred_data_residency"])
		pref.LatencyBudgetMS = anyToFloat(block["latency_budget_ms"])
		pref.MaxCostPer1K = anyToFloat(block["max_cost_per_1k"])
		pref.MinQualityScore = anyToFloat(block["min_quality_score"])
		pref.RequiredOutputTokens = anyToInt(block["required_output_tokens"])
		pref.RequiresJSONMode, _ = block["requires_json_mode"].(bool)
		pref.RequiresFunctionCalling, _ = block["requires_function_calling"].(bool)
		pref.RequiresStreaming, _ = block["requires_streaming"].(bool)
		pref.RequiresVision, _ = block["requires_vision"].(bool)
		pref.RequiresOnPrem, _ = block["requires_on_prem"].(bool)
	}

	// The resolved residency binds routing unless the caller already asked
	// for something stricter.
	if pref.RequiredDataResidency == "" && residency != "" && residency != policy.ResidencyAuto {
		pref.RequiredDataResidency = string(residency)
	}
	return pref
}

func anyToStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anyToFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func anyToInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// IsNotFound reports whether an error is any of the registry lookup
// failures, for mapping to the NOT_FOUND envelope code.
func IsNotFound(err error) bool {
	return errors.Is(err, policy.ErrPolicyNotFound) ||
		errors.Is(err, policy.ErrRuleNotFound) ||
		errors.Is(err, routing.ErrPoolNotFound) ||
		errors.Is(err, routing.ErrTargetNotFound) ||
		errors.Is(err, audit.ErrEntryNotFound)
}
