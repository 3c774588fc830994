package preprocess

// InsightsKey is the reserved context key under which the detector pipeline
// attaches rule insights. Conditions never reference it; the orchestrator
// extracts it before assembling the response.
const InsightsKey = "__rule_insights"

// Well-known rule identifiers emitted by the detector pipeline. Each maps to
// a compliance rule the corresponding detector believes is probably relevant.
const (
	RuleHealthNoOffshore      = "HEALTH_NO_OFFSHORE"
	RuleCreditCardOffshore    = "CREDIT_CARD_OFFSHORE_BLOCK"
	RuleSensitiveIDsStrict    = "SENSITIVE_IDS_STRICT"
	RuleRiskContentGuard      = "RISK_CONTENT_GUARD"
	RuleProfanityBlockStrict  = "PROFANITY_BLOCK_STRICT"
	RuleProfanityWarnInternal = "PROFANITY_WARN_INTERNAL"
	RuleCopyrightSummarize    = "COPYRIGHT_SUMMARIZATION_WARN_ROUTE"
	RulePIIRedactRoute        = "PII_REDACT_ROUTE"
	RuleAPP8CrossBorder       = "PRIV_APP8_CROSS_BORDER"
	RuleCDRSovereignty        = "CDR_DATA_SOVEREIGNTY"
	RuleAIRiskBiasAudit       = "AI_RISK_BIAS_AUDIT"
	RuleSandboxNoPersist      = "SANDBOX_NO_PERSIST"
)

// RuleInsight is a heuristic indicator that a specific compliance rule is
// likely relevant to the current payload.
type RuleInsight struct {
	// RuleID is the probable rule identifier.
	RuleID string `json:"rule_id"`

	// Confidence is the detector's confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Signals lists the deduplicated evidence that triggered the detector,
	// capped at MaxSignals entries.
	Signals []string `json:"signals"`

	// SuggestedFields are fields the detector derived for the context.
	SuggestedFields map[string]any `json:"suggested_fields,omitempty"`

	// MissingFields lists context fields the rule would need that the
	// payload does not carry.
	MissingFields []string `json:"missing_fields,omitempty"`

	// Notes is a human-readable explanation.
	Notes string `json:"notes,omitempty"`

	// Matched is set by the orchestrator when this insight's rule was the
	// matched rule of the evaluation.
	Matched bool `json:"matched"`
}

// MaxSignals caps the number of signals retained per insight.
const MaxSignals = 10

// newInsight builds an insight with clamped confidence and deduplicated,
// capped signals.
func newInsight(ruleID string, confidence float64, signals []string, notes string) *RuleInsight {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	seen := make(map[string]bool, len(signals))
	deduped := make([]string, 0, len(signals))
	for _, s := range signals {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		deduped = append(deduped, s)
		if len(deduped) == MaxSignals {
			break
		}
	}

	return &RuleInsight{
		RuleID:     ruleID,
		Confidence: confidence,
		Signals:    deduped,
		Notes:      notes,
	}
}

// Inspection holds the raw entity detection results for a payload text.
type Inspection struct {
	Emails      []string
	Phones      []string
	IDNumbers   []string
	CreditCards []string
	Addresses   []string
	ABNs        []string
	TFNs        []string
	SSNs        []string

	Profanities []string
	RiskFlags   []string

	PossibleCopyright bool

	// TFNKeywordSeen is true when a detected TFN candidate was preceded by
	// the "TFN" keyword, which raises detector confidence.
	TFNKeywordSeen bool
}

// ContainsPII reports whether any personally identifying entity was detected.
func (i *Inspection) ContainsPII() bool {
	return len(i.Emails) > 0 || len(i.Phones) > 0 || len(i.IDNumbers) > 0 ||
		len(i.CreditCards) > 0 || len(i.Addresses) > 0 || len(i.ABNs) > 0 ||
		len(i.TFNs) > 0 || len(i.SSNs) > 0
}

// PIITypes returns the detected PII type names in their stable order:
// email, phone, id_number, credit_card, address, abn, tfn, ssn.
func (i *Inspection) PIITypes() []string {
	types := []string{}
	if len(i.Emails) > 0 {
		types = append(types, "email")
	}
	if len(i.Phones) > 0 {
		types = append(types, "phone")
	}
	if len(i.IDNumbers) > 0 {
		types = append(types, "id_number")
	}
	if len(i.CreditCards) > 0 {
		types = append(types, "credit_card")
	}
	if len(i.Addresses) > 0 {
		types = append(types, "address")
	}
	if len(i.ABNs) > 0 {
		types = append(types, "abn")
	}
	if len(i.TFNs) > 0 {
		types = append(types, "tfn")
	}
	if len(i.SSNs) > 0 {
		types = append(types, "ssn")
	}
	return types
}
