package audit

// Redact restricts a payload to the whitelisted fields. Every dropped field
// is hashed over its serialized value so the stored record can still prove
// what was present without retaining it.
func Redact(payload map[string]any, auditFields []string) (map[string]any, map[string]string, error) {
	allowed := make(map[string]bool, len(auditFields))
	for _, field := range auditFields {
		allowed[field] = true
	}

	redacted := make(map[string]any, len(auditFields))
	hashed := make(map[string]string)
	for key, value := range payload {
		if allowed[key] {
			redacted[key] = value
			continue
		}
		sum, err := valueHash(value)
		if err != nil {
			return nil, nil, err
		}
		hashed[key] = sum
	}
	return redacted, hashed, nil
}
