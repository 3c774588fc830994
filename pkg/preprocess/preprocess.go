package preprocess

import "strings"

// Preprocessor enriches request payloads with inspection fields, derived
// classification fields, and rule insights. It is stateless apart from its
// compiled patterns and safe for concurrent use.
type Preprocessor struct {
	inspector *Inspector
}

// New creates a preprocessor with the built-in inspector.
func New() *Preprocessor {
	return &Preprocessor{inspector: NewInspector()}
}

// Enrich returns a new context map containing the payload's fields plus the
// inspection results, the detector-derived fields, and the rule insights
// under InsightsKey. The input payload is not modified.
//
// Enrichment is idempotent for every field the preprocessor sets: enriching
// an already-enriched context produces an equal context.
func (p *Preprocessor) Enrich(payload map[string]any) map[string]any {
	enriched := make(map[string]any, len(payload)+8)
	for k, v := range payload {
		enriched[k] = v
	}

	text := ExtractText(enriched)
	insp := p.inspector.Inspect(text)

	p.mergeInspection(enriched, insp)

	state := &detectorState{
		payload:   enriched,
		insp:      insp,
		text:      text,
		lowerText: strings.ToLower(text),
	}
	for _, detector := range pipeline {
		detector(state)
	}

	enriched[InsightsKey] = state.insights
	return enriched
}

// mergeInspection writes the aggregate inspection fields into the context.
// Aggregates are recomputed from the text on every pass, so re-enrichment
// writes identical values.
func (p *Preprocessor) mergeInspection(enriched map[string]any, insp *Inspection) {
	enriched["contains_pii"] = insp.ContainsPII()
	enriched["pii_types"] = toAnySlice(insp.PIITypes())
	enriched["profanities"] = toAnySlice(insp.Profanities)
	enriched["risk_flags"] = toAnySlice(insp.RiskFlags)
	enriched["possible_copyrighted"] = insp.PossibleCopyright

	entities := map[string]any{}
	if len(insp.Emails) > 0 {
		entities["emails"] = toAnySlice(insp.Emails)
	}
	if len(insp.Phones) > 0 {
		entities["phones"] = toAnySlice(insp.Phones)
	}
	if len(insp.Addresses) > 0 {
		entities["addresses"] = toAnySlice(insp.Addresses)
	}
	if len(entities) > 0 {
		enriched["detected_entities"] = entities
	}

	// The caller's own value wins; PII detection only raises the flag.
	if insp.ContainsPII() {
		setIfUnset(enriched, "personal_information", true)
	}
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
