package preprocess

import (
	"fmt"
	"strings"
)

// detectorState carries the evolving payload through the detector pipeline.
// Detectors run left-to-right; each sees the fields derived by its
// predecessors.
type detectorState struct {
	payload   map[string]any
	insp      *Inspection
	text      string
	lowerText string
	insights  []*RuleInsight
}

// ruleDetector inspects the enriched payload and may derive fields and emit
// rule insights.
type ruleDetector func(s *detectorState)

// pipeline is the ordered detector chain. Order matters: later detectors read
// fields set by earlier ones (APP8 reads personal_information, which the
// health detector may set).
var pipeline = []ruleDetector{
	detectHealth,
	detectCreditCard,
	detectSensitiveIDs,
	detectRiskyContent,
	detectProfanity,
	detectCopyright,
	detectPIIRedact,
	detectAPP8,
	detectCDR,
	detectAIRisk,
	detectSandbox,
}

var healthTerms = []string{
	"patient", "diagnosis", "pathology", "prescription", "medical record",
	"symptom", "treatment", "clinical", "radiology", "mri", "oncology",
	"medicare",
}

var cdrTerms = []string{
	"open banking", "consumer data right", "cdr data", "banking transaction",
	"transaction history", "account balance",
}

var demographicTerms = []string{
	"ethnicity", "race", "religion", "gender", "disability",
	"sexual orientation", "age group", "demographic", "protected attribute",
}

var summarizationTerms = []string{"summarize", "summarise", "summary", "tl;dr"}

func detectHealth(s *detectorState) {
	signals := matchTerms(s.lowerText, healthTerms)
	if len(signals) == 0 {
		return
	}

	suggested := map[string]any{}
	suggestField(s.payload, suggested, "data_class", "health_record")
	s.payload["personal_information"] = true
	suggested["personal_information"] = true

	insight := newInsight(RuleHealthNoOffshore, 0.5+0.15*float64(len(signals)), signals,
		"Health-related content detected; offshore processing is likely restricted")
	insight.SuggestedFields = suggested
	s.insights = append(s.insights, insight)
}

func detectCreditCard(s *detectorState) {
	if len(s.insp.CreditCards) == 0 && !hasPIIType(s.payload, "credit_card") {
		return
	}

	signals := make([]string, 0, len(s.insp.CreditCards))
	for _, card := range s.insp.CreditCards {
		signals = append(signals, "luhn-valid card number: "+maskDigits(card))
	}
	if len(signals) == 0 {
		signals = append(signals, "pii_types includes credit_card")
	}

	s.insights = append(s.insights, newInsight(RuleCreditCardOffshore, 0.95, signals,
		"Credit card number present; offshore routing should be blocked"))
}

func detectSensitiveIDs(s *detectorState) {
	var signals []string
	for _, abn := range s.insp.ABNs {
		signals = append(signals, "abn: "+maskDigits(abn))
	}
	for _, tfn := range s.insp.TFNs {
		signals = append(signals, "tfn: "+maskDigits(tfn))
	}
	for _, ssn := range s.insp.SSNs {
		signals = append(signals, "ssn: "+maskDigits(ssn))
	}
	for _, id := range s.insp.IDNumbers {
		signals = append(signals, "id_number: "+maskDigits(id))
	}
	if len(signals) == 0 {
		return
	}

	confidence := 0.85
	if s.insp.TFNKeywordSeen {
		confidence = 0.95
	}
	s.insights = append(s.insights, newInsight(RuleSensitiveIDsStrict, confidence, signals,
		"Government identifiers detected; strict handling applies"))
}

func detectRiskyContent(s *detectorState) {
	var signals []string
	for _, flag := range s.insp.RiskFlags {
		switch flag {
		case "hate", "violence", "adult", "self_harm":
			signals = append(signals, "risk_flag: "+flag)
		}
	}
	if len(signals) == 0 {
		return
	}

	s.insights = append(s.insights, newInsight(RuleRiskContentGuard, 0.8, signals,
		"Content matches risk keyword groups"))
}

func detectProfanity(s *detectorState) {
	if len(s.insp.Profanities) == 0 {
		return
	}

	signals := make([]string, 0, len(s.insp.Profanities))
	for _, word := range s.insp.Profanities {
		signals = append(signals, "profanity: "+word)
	}

	s.insights = append(s.insights,
		newInsight(RuleProfanityBlockStrict, 0.7, signals,
			"Profanity detected; strict policies block outright"),
		newInsight(RuleProfanityWarnInternal, 0.6, signals,
			"Profanity detected; lenient policies warn and route internally"))
}

func detectCopyright(s *detectorState) {
	signals := matchTerms(s.lowerText, summarizationTerms)
	if s.insp.PossibleCopyright {
		signals = append(signals, "possible copyrighted content")
	}
	if len(signals) == 0 {
		return
	}

	suggested := map[string]any{}
	suggestField(s.payload, suggested, "purpose", "summarization")

	insight := newInsight(RuleCopyrightSummarize, 0.6, signals,
		"Summarization of possibly copyrighted material")
	if len(suggested) > 0 {
		insight.SuggestedFields = suggested
	}
	s.insights = append(s.insights, insight)
}

func detectPIIRedact(s *detectorState) {
	containsPII, _ := s.payload["contains_pii"].(bool)
	if !containsPII {
		return
	}

	var signals []string
	if types, ok := s.payload["pii_types"].([]any); ok {
		for _, t := range types {
			signals = append(signals, fmt.Sprintf("pii: %v", t))
		}
	}

	s.insights = append(s.insights, newInsight(RulePIIRedactRoute, 0.8, signals,
		"PII present; redaction-capable route recommended"))
}

func detectAPP8(s *detectorState) {
	personal, _ := s.payload["personal_information"].(bool)
	if !personal {
		return
	}

	insight := newInsight(RuleAPP8CrossBorder, 0.7,
		[]string{"personal_information is set"},
		"Cross-border disclosure of personal information engages APP 8")
	if _, present := s.payload["destination_region"]; !present {
		insight.MissingFields = []string{"destination_region"}
	}
	s.insights = append(s.insights, insight)
}

func detectCDR(s *detectorState) {
	signals := matchTerms(s.lowerText, cdrTerms)
	if len(signals) == 0 {
		return
	}

	suggested := map[string]any{}
	suggestField(s.payload, suggested, "data_class", "cdr_data")

	insight := newInsight(RuleCDRSovereignty, 0.85, signals,
		"Consumer Data Right material detected; data sovereignty rules apply")
	if len(suggested) > 0 {
		insight.SuggestedFields = suggested
	}
	s.insights = append(s.insights, insight)
}

func detectAIRisk(s *detectorState) {
	signals := matchTerms(s.lowerText, demographicTerms)
	if len(signals) == 0 {
		return
	}

	suggested := map[string]any{}
	suggestField(s.payload, suggested, "data_class", "demographic_data")
	suggestField(s.payload, suggested, "ai_risk_level", "high")

	insight := newInsight(RuleAIRiskBiasAudit, 0.7, signals,
		"Demographic or protected-attribute content; bias audit recommended")
	if len(suggested) > 0 {
		insight.SuggestedFields = suggested
	}
	s.insights = append(s.insights, insight)
}

func detectSandbox(s *detectorState) {
	env, _ := s.payload["environment"].(string)
	switch env {
	case "sandbox", "testing", "development":
	default:
		return
	}

	s.insights = append(s.insights, newInsight(RuleSandboxNoPersist, 0.9,
		[]string{"environment: " + env},
		"Non-production environment; outputs must not persist"))
}

// matchTerms returns "term: <t>" signals for every term present in the text.
func matchTerms(lowerText string, terms []string) []string {
	var signals []string
	for _, term := range terms {
		if strings.Contains(lowerText, term) {
			signals = append(signals, "term: "+term)
		}
	}
	return signals
}

// suggestField derives a field and records it as suggested. The suggestion
// is also recorded when the payload already carries the same value, so
// re-enrichment emits identical insights.
func suggestField(payload map[string]any, suggested map[string]any, key string, value any) {
	if setIfUnset(payload, key, value) || payload[key] == value {
		suggested[key] = value
	}
}

// setIfUnset sets key to value only when the payload does not already carry
// it, and reports whether it wrote.
func setIfUnset(payload map[string]any, key string, value any) bool {
	if _, present := payload[key]; present {
		return false
	}
	payload[key] = value
	return true
}

func hasPIIType(payload map[string]any, want string) bool {
	types, ok := payload["pii_types"].([]any)
	if !ok {
		return false
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// maskDigits replaces all but the last four digits of a detected entity so
// raw identifiers never travel further than the inspection step.
func maskDigits(s string) string {
	digits := stripNonDigits(s)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
