package preprocess

// ExtractText extracts the message text policy signals are derived from.
// It prefers the most recent item in messages[] whose role is "user",
// "system", or absent and whose content is a string. When no such message
// exists it falls back to a top-level string "message" field, and otherwise
// returns the empty string.
func ExtractText(payload map[string]any) string {
	if messages, ok := payload["messages"].([]any); ok {
		for i := len(messages) - 1; i >= 0; i-- {
			msg, ok := messages[i].(map[string]any)
			if !ok {
				continue
			}

			if role, present := msg["role"]; present {
				r, ok := role.(string)
				if !ok || (r != "user" && r != "system") {
					continue
				}
			}

			if content, ok := msg["content"].(string); ok {
				return content
			}
		}
	}

	if message, ok := payload["message"].(string); ok {
		return message
	}
	return ""
}
