package routing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// defaultContextWindow is assumed when a profile does not state its window.
const defaultContextWindow = 8192

// localDeployments are the tag values that count as on-premise hosting.
var localDeployments = map[string]bool{
	"local":  true,
	"onsite": true,
	"onprem": true,
}

// Scorer ranks a pool's active targets against routing preferences. Scoring
// is additive and deterministic; the same inputs produce the same ranking.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a routing scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger.With("component", "routing.scorer")}
}

// Rank scores every active target in the pool and returns candidates sorted
// descending by score. Ties keep the original target order, and the top
// candidate is marked selected. Targets with disqualifying penalties stay in
// the ranking so callers can see why they lost.
func (s *Scorer) Rank(pool *ModelPool, targets []*RouteTarget, pref *Preference) (*Decision, error) {
	candidates := make([]Candidate, 0, len(targets))
	for _, target := range targets {
		if !target.IsActive {
			continue
		}
		score, reasons := s.scoreTarget(target, pref)
		candidates = append(candidates, Candidate{
			TargetID: target.ID,
			Provider: target.Provider,
			Endpoint: target.Endpoint,
			Model:    target.Model,
			Region:   target.Region,
			Score:    score,
			Reasons:  reasons,
		})
	}

	if len(candidates) == 0 {
		return nil, &NoCandidatesError{PoolID: pool.PoolID}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	candidates[0].Selected = true

	s.logger.Debug("ranking complete",
		"pool_id", pool.PoolID,
		"candidate_count", len(candidates),
		"selected", candidates[0].TargetID,
		"top_score", candidates[0].Score,
	)

	return &Decision{
		PoolID:          pool.PoolID,
		PoolRegion:      pool.Region,
		PoolDescription: pool.Description,
		Candidates:      candidates,
	}, nil
}

func (s *Scorer) scoreTarget(target *RouteTarget, pref *Preference) (float64, []string) {
	score := target.Weight
	reasons := []string{fmt.Sprintf("base weight %.2f", target.Weight)}

	add := func(delta float64, format string, args ...any) {
		score += delta
		reasons = append(reasons, fmt.Sprintf(format+" (%+.2f)", append(args, delta)...))
	}

	// Profile boosts apply whenever a profile exists; preferences only add
	// the preference-driven terms on top.
	profile := target.Profile
	if profile != nil {
		if boost := 1000 / maxf(profile.Performance.AvgLatencyMS, 1); boost > 0 {
			add(boost, "latency boost for avg %.0fms", profile.Performance.AvgLatencyMS)
		}
		add(profile.Performance.Availability*10, "availability %.3f", profile.Performance.Availability)
	}

	if profile != nil && pref != nil {
		if len(pref.ComplianceTags) > 0 {
			hits := complianceHits(pref.ComplianceTags, profile)
			if hits > 0 {
				add(float64(25*hits), "%d compliance tag match(es)", hits)
			}
		}

		s.scoreResidency(profile, pref, add)
		s.scoreOnPrem(profile, pref, add)
		s.scoreInfoTypes(profile, pref, add)
		s.scoreContextWindow(profile, pref, add)
		s.scoreStrength(profile, pref, add)
		s.scoreLatencyBudget(profile, pref, add)
		s.scoreCost(profile, pref, add)
		s.scoreQuality(profile, pref, add)
		s.scoreOutputTokens(profile, pref, add)
		s.scoreFeatures(profile, pref, add)
	} else if profile == nil && pref != nil && pref.RequiresOnPrem {
		add(-6000, "on-premise required but target has no profile")
	}

	if pref != nil {
		if pref.PreferRegion != "" && pref.PreferRegion == target.Region {
			add(50, "preferred region %s", target.Region)
		}
		if pref.Provider != "" && pref.Provider == target.Provider {
			add(25, "preferred provider %s", target.Provider)
		}
		if pref.MinimizeLatency && profile != nil {
			add(500/maxf(profile.Performance.P95LatencyMS, 1), "minimize latency against p95 %.0fms", profile.Performance.P95LatencyMS)
		}
	}

	return score, reasons
}

func (s *Scorer) scoreResidency(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	residency := profile.Compliance.DataResidency

	if pref.RequiredDataResidency != "" && pref.RequiredDataResidency != "AUTO" {
		if residencyMatches(pref.RequiredDataResidency, residency, profile) {
			add(200, "residency matches required %s", pref.RequiredDataResidency)
		} else {
			add(-5000, "residency mismatch: required %s, target is %q", pref.RequiredDataResidency, residency)
		}
		return
	}

	for _, preferred := range pref.PreferredDataResidency {
		if strings.EqualFold(preferred, residency) {
			add(75, "residency %s in preferred list", residency)
			return
		}
	}
}

// residencyMatches decides whether a target satisfies a hard residency
// requirement. AU_LOCAL demands Australian residency plus a local-class
// deployment tag; ON_PREMISE demands the deployment tag alone.
func residencyMatches(required, residency string, profile *ModelProfile) bool {
	switch required {
	case "AU_ONSHORE":
		return strings.EqualFold(residency, "AU")
	case "AU_LOCAL":
		return strings.EqualFold(residency, "AU") && localDeployments[deploymentTag(profile)]
	case "ON_PREMISE":
		return localDeployments[deploymentTag(profile)]
	default:
		return strings.EqualFold(required, residency)
	}
}

func (s *Scorer) scoreOnPrem(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if !pref.RequiresOnPrem {
		return
	}
	if localDeployments[deploymentTag(profile)] {
		add(250, "on-premise deployment")
	} else {
		add(-6000, "on-premise required but deployment is %q", deploymentTag(profile))
	}
}

func (s *Scorer) scoreInfoTypes(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if len(pref.InfoTypes) == 0 {
		return
	}

	supported := make(map[string]bool)
	for _, class := range profile.SupportedDataClasses {
		supported[strings.ToLower(class)] = true
	}
	for _, class := range stringSliceTag(profile.Tags, "info_types") {
		supported[strings.ToLower(class)] = true
	}

	hits := 0
	for _, want := range pref.InfoTypes {
		if supported[strings.ToLower(want)] {
			hits++
		}
	}
	if hits > 0 {
		add(float64(20*hits), "%d info type(s) supported", hits)
	} else {
		add(-40, "no info type overlap")
	}
}

func (s *Scorer) scoreContextWindow(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.RequiredContextWindowTokens <= 0 {
		return
	}
	window := profile.Limits.ContextWindowTokens
	if window <= 0 {
		window = defaultContextWindow
	}
	if window < pref.RequiredContextWindowTokens {
		add(-1000, "context window %d below required %d", window, pref.RequiredContextWindowTokens)
	} else {
		add(minf(100, float64(window-pref.RequiredContextWindowTokens)/100), "context window %d tokens", window)
	}
}

// strengthRank orders model strength tiers. Unknown tiers rank below lite.
func strengthRank(strength string) int {
	switch strings.ToLower(strength) {
	case StrengthStrong:
		return 3
	case StrengthStandard:
		return 2
	case StrengthLite:
		return 1
	default:
		return 0
	}
}

// effectiveStrength resolves a target's strength tier, deriving one from the
// cost_tier tag when the profile does not state it.
func effectiveStrength(profile *ModelProfile) string {
	if profile.Quality.Strength != "" {
		return profile.Quality.Strength
	}
	switch strings.ToLower(stringTag(profile.Tags, "cost_tier")) {
	case "premium", "quality":
		return StrengthStrong
	case "balanced", "standard":
		return StrengthStandard
	case "economy", "lite":
		return StrengthLite
	}
	return ""
}

func (s *Scorer) scoreStrength(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.ModelStrength == "" {
		return
	}
	have := effectiveStrength(profile)
	if strings.EqualFold(have, pref.ModelStrength) {
		add(60, "model strength %s matches", have)
	} else {
		delta := float64(10 * (strengthRank(have) - strengthRank(pref.ModelStrength)))
		add(delta, "model strength %q vs required %q", have, pref.ModelStrength)
	}
}

func (s *Scorer) scoreLatencyBudget(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.LatencyBudgetMS <= 0 {
		return
	}
	p95 := profile.Performance.P95LatencyMS
	if p95 > pref.LatencyBudgetMS {
		over := p95 - pref.LatencyBudgetMS
		add(-minf(800, over/2), "p95 %.0fms over budget %.0fms", p95, pref.LatencyBudgetMS)
	} else {
		under := pref.LatencyBudgetMS - p95
		add(minf(200, under/3), "p95 %.0fms under budget %.0fms", p95, pref.LatencyBudgetMS)
	}
}

func (s *Scorer) scoreCost(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.MaxCostPer1K <= 0 {
		return
	}
	price := profile.Cost.Per1KTokens
	if price > pref.MaxCostPer1K {
		add(-1200, "cost %.4f over cap %.4f", price, pref.MaxCostPer1K)
	} else {
		add(minf(120, (pref.MaxCostPer1K-price)*10), "cost %.4f within cap %.4f", price, pref.MaxCostPer1K)
	}
}

func (s *Scorer) scoreQuality(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.MinQualityScore <= 0 {
		return
	}
	q := profile.Quality.Score
	if q < pref.MinQualityScore {
		add(-600, "quality %.2f below minimum %.2f", q, pref.MinQualityScore)
	} else {
		add(minf(150, (q-pref.MinQualityScore)*20), "quality %.2f meets minimum %.2f", q, pref.MinQualityScore)
	}
}

func (s *Scorer) scoreOutputTokens(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.RequiredOutputTokens <= 0 {
		return
	}
	if profile.Limits.MaxOutputTokens < pref.RequiredOutputTokens {
		add(-1000, "max output %d below required %d", profile.Limits.MaxOutputTokens, pref.RequiredOutputTokens)
	} else {
		add(40, "output capacity %d tokens", profile.Limits.MaxOutputTokens)
	}
}

func (s *Scorer) scoreFeatures(profile *ModelProfile, pref *Preference, add func(float64, string, ...any)) {
	if pref.RequiresJSONMode && !hasFeature(profile, "json_mode", "json") {
		add(-800, "missing JSON mode")
	}
	if pref.RequiresFunctionCalling && !hasFeature(profile, "function_calling", "function") {
		add(-800, "missing function calling")
	}
	if pref.RequiresStreaming && !hasFeature(profile, "streaming", "stream") {
		add(-400, "missing streaming")
	}
	if pref.RequiresVision && !hasFeature(profile, "vision", "multimodal") {
		add(-900, "missing vision support")
	}
}

// hasFeature reports a capability present when any capabilities[] entry
// contains one of the names as a case-insensitive substring, or the tag of
// the feature's primary name is true.
func hasFeature(profile *ModelProfile, names ...string) bool {
	for _, capability := range profile.Capabilities {
		lower := strings.ToLower(capability)
		for _, name := range names {
			if strings.Contains(lower, name) {
				return true
			}
		}
	}
	if v, ok := profile.Tags[names[0]]; ok {
		if b, ok := v.(bool); ok && b {
			return true
		}
	}
	return false
}

// complianceHits counts requested tags present as certifications or as
// truthy profile tags.
func complianceHits(wanted []string, profile *ModelProfile) int {
	hits := 0
	for _, tag := range wanted {
		if hasComplianceTag(tag, profile) {
			hits++
		}
	}
	return hits
}

func hasComplianceTag(tag string, profile *ModelProfile) bool {
	for _, cert := range profile.Compliance.Certifications {
		if strings.EqualFold(cert, tag) {
			return true
		}
	}
	switch v := profile.Tags[tag].(type) {
	case bool:
		return v
	case string:
		return v != ""
	}
	return false
}

func deploymentTag(profile *ModelProfile) string {
	return strings.ToLower(stringTag(profile.Tags, "deployment"))
}

func stringTag(tags map[string]any, key string) string {
	if v, ok := tags[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceTag(tags map[string]any, key string) []string {
	switch v := tags[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
