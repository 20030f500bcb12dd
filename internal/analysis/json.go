package analysis

import (
	"encoding/json"
	"strings"
)

// ExtractObject recovers a JSON object embedded in free-form completion
// text. It strips markdown code fences, tries the whole text first, then
// falls back to the first balanced {...} span. Returns ok=false when no
// parseable object is found; it never returns an error.
func ExtractObject(text string) (map[string]any, bool) {
	cleaned := stripFences(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, true
	}

	span, ok := firstBalancedObject(cleaned)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(span), &obj); err == nil {
		return obj, true
	}
	return nil, false
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	return strings.TrimSpace(text)
}

// firstBalancedObject returns the first balanced {...} span in text. The
// scan is a single linear pass that tracks string literals and escapes, so
// braces inside JSON strings do not confuse the depth count.
func firstBalancedObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
