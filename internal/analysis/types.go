// Package analysis turns raw LLM completions into structured analysis
// records. Parsing is total: malformed model output degrades to a flagged
// fallback record, it never produces an error.
package analysis

import (
	"github.com/rotisserie/eris"
)

// Type identifies a report dialect. The dialect governs both prompt
// construction and the section structure expected in the response.
type Type string

const (
	// TypeFormal is the full formal root-cause report.
	TypeFormal Type = "formal"
	// TypeOverview is the short first-pass incident overview.
	TypeOverview Type = "overview"
	// TypeAssessment is the structured problem assessment (JSON plus
	// formatted sections, including the IS/IS NOT specification table).
	TypeAssessment Type = "structured-assessment"
)

// Types returns all known analysis types in their fixed order.
func Types() []Type {
	return []Type{TypeFormal, TypeOverview, TypeAssessment}
}

// ParseType validates a type identifier from config or API input.
func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", eris.Errorf("analysis: unknown analysis type %q", s)
}

// Well-known field names shared with report rendering and the HTTP API.
// External consumers key off these exact names.
const (
	FieldRawResponse  = "raw_response"
	FieldRawContent   = "raw_content"
	FieldParsingError = "parsing_error"
	FieldSourcesUsed  = "sources_used"

	FieldExecutiveSummary = "executive_summary"
	FieldProblemStatement = "problem_statement"
)

// Parsed is the structured record extracted from one completion. Values are
// strings, lists, or booleans depending on what the model returned. The
// raw_response field always holds the unmodified completion text.
type Parsed map[string]any

// Raw returns the verbatim completion text the record was parsed from.
func (p Parsed) Raw() string {
	s, _ := p[FieldRawResponse].(string)
	return s
}

// Degraded reports whether the record is the fallback produced when no
// structured or sectioned content could be recovered.
func (p Parsed) Degraded() bool {
	b, _ := p[FieldParsingError].(bool)
	return b
}

// String returns the named field as a string, or "" when absent or
// non-string.
func (p Parsed) String(field string) string {
	s, _ := p[field].(string)
	return s
}
