package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oncall-tools/rca-cli/internal/analysis"
)

// documentSection pairs a display title with its result field.
type documentSection struct {
	title string
	field string
}

// documentSections is the fixed section order for rendered documents.
var documentSections = []documentSection{
	{"Executive Summary", analysis.FieldExecutiveSummary},
	{"Problem Statement", analysis.FieldProblemStatement},
	{"Timeline", "timeline"},
	{"Customer Impact", "customer_impact"},
	{"Technical Summary", "technical_summary"},
	{"Root Cause", "root_cause"},
	{"Contributing Factors", "contributing_factors"},
	{"Impact Assessment", "impact_assessment"},
	{"Corrective Actions", "corrective_actions"},
	{"Preventive Measures", "preventive_measures"},
	{"Prevention", "prevention"},
	{"Recommendations", "recommendations"},
	{"Next Steps", "next_steps"},
}

// internalFields never appear as document sections.
var internalFields = map[string]bool{
	analysis.FieldRawResponse:  true,
	analysis.FieldRawContent:   true,
	analysis.FieldParsingError: true,
	analysis.FieldSourcesUsed:  true,
}

// RenderMarkdown formats a record as a readable markdown document: known
// sections in fixed order, remaining fields alphabetically, sources last.
func RenderMarkdown(rec *analysis.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Root Cause Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	if rec.Issue != "" {
		fmt.Fprintf(&b, "Issue: %s\n", rec.Issue)
	}
	if rec.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", rec.Provider)
	}
	b.WriteString("\n")

	if rec.Result.Degraded() {
		b.WriteString("> Parsing of the model response failed; the raw output is preserved in the JSON report.\n\n")
	}

	rendered := make(map[string]bool)
	for _, s := range documentSections {
		v, ok := rec.Result[s.field]
		if !ok || isEmptyValue(v) {
			continue
		}
		writeSection(&b, s.title, v)
		rendered[s.field] = true
	}

	var extras []string
	for k, v := range rec.Result {
		if rendered[k] || internalFields[k] || isEmptyValue(v) {
			continue
		}
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		writeSection(&b, titleCase(k), rec.Result[k])
	}

	if len(rec.Sources) > 0 {
		b.WriteString("## Sources\n")
		for _, s := range rec.Sources {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	return b.String()
}

func writeSection(b *strings.Builder, title string, v any) {
	fmt.Fprintf(b, "## %s\n", title)
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			fmt.Fprintf(b, "- %v\n", item)
		}
	case []string:
		for _, item := range val {
			fmt.Fprintf(b, "- %s\n", item)
		}
	default:
		fmt.Fprintf(b, "%v\n", val)
	}
	b.WriteString("\n")
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}

// titleCase turns a snake_case field name into a section title.
func titleCase(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
