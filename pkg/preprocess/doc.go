// Package preprocess enriches inbound request payloads with content-derived
// signals before policy evaluation.
//
// The preprocessor extracts the message text from the payload, runs a set of
// deterministic regex-based entity detectors (emails, phones, credit cards
// with Luhn validation, ABN/TFN/SSN, street addresses, profanities, risk
// keywords, copyright heuristics), and merges the resulting fields into a new
// context map. A pipeline of rule detectors then derives classification
// fields (for example data_class=health_record) and attaches rule insights
// under the reserved InsightsKey for downstream surfacing.
//
// Enrichment performs no I/O and consults no clock: the same payload always
// produces the same enriched context, and enriching an already-enriched
// payload is a no-op for every field the preprocessor sets.
package preprocess
