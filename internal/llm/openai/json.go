package openai

import (
	"encoding/json"
	"strings"
)

// extractJSON carves the first balanced JSON object out of raw model output.
// Models occasionally wrap their JSON in markdown fences or prose despite
// being told not to.
func extractJSON(raw string) (json.RawMessage, bool) {
	text := strings.TrimSpace(raw)
	if fenced := stripCodeFence(text); fenced != "" {
		text = fenced
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return ""
	}
	body := strings.TrimPrefix(text, "```json")
	body = strings.TrimPrefix(body, "```")
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
