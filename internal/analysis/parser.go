package analysis

import (
	"unicode/utf8"

	"go.uber.org/zap"
)

// fallbackPreviewLimit bounds the raw_content preview stored on the
// degraded fallback record.
const fallbackPreviewLimit = 2000

// Fallback placeholder values. Operators see these when neither structured
// nor sectioned content could be recovered.
const (
	fallbackSummary   = "Analysis parsing failed. Please check the raw response."
	fallbackStatement = "Unable to parse structured response"
)

// Parse extracts a structured record from a raw completion. It is total:
// any input, including empty or pure noise, yields a Parsed record and
// never an error. The raw_response field always holds the input verbatim.
func Parse(raw string, typ Type) Parsed {
	result := Parsed{FieldRawResponse: raw}

	// Structured fields merge first and take precedence over sections.
	if obj, ok := ExtractObject(raw); ok {
		for k, v := range obj {
			result[k] = v
		}
	}

	if d := DialectFor(typ); d != nil {
		sections := d.ExtractSections(raw)
		for k, v := range sections {
			if _, exists := result[k]; !exists {
				result[k] = v
			}
		}
	}

	if len(result) == 1 {
		zap.L().Warn("analysis: no structured content recovered, using fallback",
			zap.String("type", string(typ)),
			zap.Int("raw_len", len(raw)),
		)
		result[FieldExecutiveSummary] = fallbackSummary
		result[FieldProblemStatement] = fallbackStatement
		result[FieldParsingError] = true
		result[FieldRawContent] = truncate(raw, fallbackPreviewLimit)
	}

	return result
}

// truncate cuts s to at most limit bytes without splitting a multi-byte
// rune, so the preview stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
