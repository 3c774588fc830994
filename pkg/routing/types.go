package routing

import "time"

// Pool health states reported by the out-of-band checker.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// PoolHealth is the last reported health of a pool. It is mutated only by
// the health checker, never by the decision path.
type PoolHealth struct {
	Status    string    `json:"status" yaml:"status"`
	LastCheck time.Time `json:"last_check,omitempty" yaml:"last_check,omitempty"`
	Errors    []string  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ModelPool is a named group of model endpoints sharing a region.
type ModelPool struct {
	PoolID      string     `json:"pool_id" yaml:"pool_id" validate:"required"`
	Region      string     `json:"region" yaml:"region"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Health      PoolHealth `json:"health" yaml:"health"`
}

// Compliance carries data-residency and certification metadata for a target.
type Compliance struct {
	DataResidency  string   `json:"data_residency,omitempty" yaml:"data_residency,omitempty"`
	Certifications []string `json:"certifications,omitempty" yaml:"certifications,omitempty"`
}

// Performance carries the measured latency and availability of a target.
type Performance struct {
	AvgLatencyMS  float64 `json:"avg_latency_ms,omitempty" yaml:"avg_latency_ms,omitempty"`
	P95LatencyMS  float64 `json:"p95_latency_ms,omitempty" yaml:"p95_latency_ms,omitempty"`
	Availability  float64 `json:"availability,omitempty" yaml:"availability,omitempty"`
	ThroughputTPS float64 `json:"throughput_tps,omitempty" yaml:"throughput_tps,omitempty"`
}

// Cost is the per-token price of a target.
type Cost struct {
	Currency    string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	Per1KTokens float64 `json:"per_1k_tokens,omitempty" yaml:"per_1k_tokens,omitempty"`
}

// Limits describes token capacity. A zero ContextWindowTokens means the
// window is unknown; the scorer assumes a default.
type Limits struct {
	ContextWindowTokens int `json:"context_window_tokens,omitempty" yaml:"context_window_tokens,omitempty"`
	MaxInputTokens      int `json:"max_input_tokens,omitempty" yaml:"max_input_tokens,omitempty"`
	MaxOutputTokens     int `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
}

// Model strength tiers, weakest to strongest.
const (
	StrengthLite     = "lite"
	StrengthStandard = "standard"
	StrengthStrong   = "strong"
)

// Quality grades a model. Strength is a coarse tier; Score is a fine-grained
// benchmark value in [0,1].
type Quality struct {
	Strength string  `json:"strength,omitempty" yaml:"strength,omitempty"`
	Score    float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// ModelProfile is the structured capability and cost metadata attached to a
// target. Tags is free-form; well-known keys include "deployment" (local,
// onsite, onprem), "info_types" ([]string), "cost_tier", and per-feature
// booleans like "json_mode".
type ModelProfile struct {
	Capabilities         []string       `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	SupportedDataClasses []string       `json:"supported_data_classes,omitempty" yaml:"supported_data_classes,omitempty"`
	Compliance           Compliance     `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	Performance          Performance    `json:"performance,omitempty" yaml:"performance,omitempty"`
	Cost                 Cost           `json:"cost,omitempty" yaml:"cost,omitempty"`
	Limits               Limits         `json:"limits,omitempty" yaml:"limits,omitempty"`
	Quality              Quality        `json:"quality,omitempty" yaml:"quality,omitempty"`
	Tags                 map[string]any `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// RouteTarget is a single model endpoint inside a pool.
type RouteTarget struct {
	ID       string        `json:"id" yaml:"id" validate:"required"`
	PoolID   string        `json:"pool_id" yaml:"pool_id" validate:"required"`
	Provider string        `json:"provider" yaml:"provider"`
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"`
	Weight   float64       `json:"weight" yaml:"weight"`
	Region   string        `json:"region,omitempty" yaml:"region,omitempty"`
	IsActive bool          `json:"is_active" yaml:"is_active"`
	Profile  *ModelProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Preference captures everything a caller may ask of the ranking. Every
// field is optional; a nil Preference ranks targets by weight alone.
type Preference struct {
	PreferRegion    string `json:"prefer_region,omitempty"`
	Provider        string `json:"provider,omitempty"`
	MinimizeLatency bool   `json:"minimize_latency,omitempty"`

	ComplianceTags []string `json:"compliance_tags,omitempty"`
	InfoTypes      []string `json:"info_types,omitempty"`

	RequiredContextWindowTokens int    `json:"required_context_window_tokens,omitempty"`
	ModelStrength               string `json:"model_strength,omitempty"`

	RequiredDataResidency  string   `json:"required_data_residency,omitempty"`
	PreferredDataResidency []string `json:"preferred_data_residency,omitempty"`

	LatencyBudgetMS float64 `json:"latency_budget_ms,omitempty"`
	MaxCostPer1K    float64 `json:"max_cost_per_1k,omitempty"`
	MinQualityScore float64 `json:"min_quality_score,omitempty"`

	RequiredOutputTokens int `json:"required_output_tokens,omitempty"`

	RequiresJSONMode        bool `json:"requires_json_mode,omitempty"`
	RequiresFunctionCalling bool `json:"requires_function_calling,omitempty"`
	RequiresStreaming       bool `json:"requires_streaming,omitempty"`
	RequiresVision          bool `json:"requires_vision,omitempty"`
	RequiresOnPrem          bool `json:"requires_on_prem,omitempty"`
}

// Candidate is one ranked target with the reasons behind its score.
// Disqualifying penalties keep the candidate in the ranking so the caller
// can observe why it lost.
type Candidate struct {
	TargetID string   `json:"target_id"`
	Provider string   `json:"provider,omitempty"`
	Endpoint string   `json:"endpoint,omitempty"`
	Model    string   `json:"model,omitempty"`
	Region   string   `json:"region,omitempty"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
	Selected bool     `json:"selected,omitempty"`
}

// Decision is the ranked outcome for one pool.
type Decision struct {
	PoolID          string      `json:"pool_id"`
	PoolRegion      string      `json:"pool_region,omitempty"`
	PoolDescription string      `json:"pool_description,omitempty"`
	Candidates      []Candidate `json:"candidates"`
}

// Request asks for a routing decision, optionally invoking the selected
// target's connector.
type Request struct {
	PoolID      string         `json:"pool_id,omitempty"`
	Preferences *Preference    `json:"preferences,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Response pairs the ranking with the connector output for the winner.
type Response struct {
	Decision *Decision      `json:"decision"`
	Output   map[string]any `json:"output,omitempty"`
}
