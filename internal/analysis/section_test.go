package analysis

import (
	"strings"
	"testing"
)

func TestExtractSections_FormalMarkdownHeaders(t *testing.T) {
	text := `Some preamble from the model.

### Executive Summary
The storage cluster dropped writes for 40 minutes during failover.

### Timeline
14:02 failover started
14:42 writes restored

### Root Cause
A stale quorum record prevented the secondary from taking over.

### Next Steps
1. Add a quorum-record health check
2. Rehearse failover quarterly`

	d := DialectFor(TypeFormal)
	sections := d.ExtractSections(text)

	for _, field := range []string{"executive_summary", "timeline", "root_cause", "next_steps"} {
		if _, ok := sections[field]; !ok {
			t.Errorf("expected section %q not found", field)
		}
	}

	if s, _ := sections["timeline"].(string); !strings.Contains(s, "14:02 failover started") {
		t.Errorf("timeline content wrong: %q", s)
	}
	if s, _ := sections["root_cause"].(string); strings.Contains(s, "quarterly") {
		t.Error("root_cause should not bleed into next_steps")
	}

	// Numbered list items must stay inside their section.
	if s, _ := sections["next_steps"].(string); !strings.Contains(s, "2. Rehearse failover quarterly") {
		t.Errorf("next_steps lost its list items: %q", s)
	}
}

func TestExtractSections_SectionNumberingScheme(t *testing.T) {
	text := `SECTION 1: Timeline
The outage began at 09:00 and ended at 09:45.

SECTION 2: Customer Impact
Roughly 300 tenants saw elevated error rates.

SECTION 4: Root Cause
An expired certificate on the ingress tier.`

	sections := DialectFor(TypeFormal).ExtractSections(text)

	if _, ok := sections["timeline"]; !ok {
		t.Error("expected timeline from SECTION heading")
	}
	if _, ok := sections["customer_impact"]; !ok {
		t.Error("expected customer_impact from SECTION heading")
	}
	if s, _ := sections["root_cause"].(string); !strings.Contains(s, "expired certificate") {
		t.Errorf("root_cause content wrong: %q", s)
	}
}

func TestExtractSections_KeywordPriority(t *testing.T) {
	// "Root Cause Analysis" must resolve via its longest keyword, not the
	// shorter "cause" variant, and must do so for every numbering scheme.
	for _, text := range []string{
		"### Root Cause Analysis\nThe retry queue overflowed silently.",
		"D. Root Cause Analysis\nThe retry queue overflowed silently.",
		"SECTION 4 - Root Cause Analysis\nThe retry queue overflowed silently.",
	} {
		sections := DialectFor(TypeFormal).ExtractSections(text)
		if _, ok := sections["root_cause"]; !ok {
			t.Errorf("input %q: expected root_cause", text[:20])
		}
	}
}

func TestExtractSections_ShortContentDiscarded(t *testing.T) {
	text := "### Timeline\nok\n### Root Cause\nThe cache invalidation path raced with the writer."
	sections := DialectFor(TypeFormal).ExtractSections(text)

	if _, ok := sections["timeline"]; ok {
		t.Error("content below the minimum length should be discarded")
	}
	if _, ok := sections["root_cause"]; !ok {
		t.Error("expected root_cause")
	}
}

func TestExtractSections_UnmappedExtrasPass(t *testing.T) {
	text := `### Observed Symptoms
Clients saw 502 responses from the edge for eleven minutes.

### Mitigation Applied
Traffic was shifted to the standby region at 10:14.`

	sections := DialectFor(TypeFormal).ExtractSections(text)

	if _, ok := sections["observed_symptoms"]; !ok {
		t.Error("expected unmapped heading captured as observed_symptoms")
	}
	if _, ok := sections["mitigation_applied"]; !ok {
		t.Error("expected unmapped heading captured as mitigation_applied")
	}
}

func TestExtractSections_ExtrasPassSkippedWhenEnoughNamed(t *testing.T) {
	text := `### Timeline
The incident ran from 08:00 to 08:30 with two partial recoveries.

### Root Cause
Connection pool exhaustion in the billing service.

### Next Steps
Raise the pool ceiling and alert on saturation.

### Customer Impact
Checkout latency tripled for all EU tenants.

### Random Appendix
Extra content that should not become a field.`

	sections := DialectFor(TypeFormal).ExtractSections(text)

	if _, ok := sections["random_appendix"]; ok {
		t.Error("extras pass must not run when enough named sections matched")
	}
}

func TestExtractSections_OverviewStatusLineAndNumbering(t *testing.T) {
	text := `STATUS Red : CASE-8812 : REF 4410227 : Northwind Corp : Cluster failover stuck

1) People
Ops on-call, storage SRE, account engineer.

2) Timeline
Ticket opened Monday, escalated Tuesday morning.

3) Technical Summary
Failover halted because the mediator was unreachable.`

	sections := DialectFor(TypeOverview).ExtractSections(text)

	if got, _ := sections["status_color"].(string); got != "Red" {
		t.Errorf("status_color = %q", got)
	}
	if got, _ := sections["case_id"].(string); got != "CASE-8812" {
		t.Errorf("case_id = %q", got)
	}
	if got, _ := sections["customer_name"].(string); got != "Northwind Corp" {
		t.Errorf("customer_name = %q", got)
	}
	if _, ok := sections["people"]; !ok {
		t.Error("expected people section from '1)' numbering")
	}
	if s, _ := sections["technical_summary"].(string); !strings.Contains(s, "mediator") {
		t.Errorf("technical_summary content wrong: %q", s)
	}
}

func TestExtractSections_AssessmentTableCleanup(t *testing.T) {
	text := `### KEPNER-TREGOE PROBLEM ANALYSIS
The deviation is limited to the primary site object store.

#### 2. Problem Specification (IS/IS NOT Analysis)
  Dimension | IS | IS NOT
---|---|---
  What | object PUTs failing | reads failing
plain text note

#### 3. Root Cause Analysis
Lifecycle policy deleted the tenant bucket index.`

	sections := DialectFor(TypeAssessment).ExtractSections(text)

	table, _ := sections["specification_table"].(string)
	if table == "" {
		t.Fatal("expected specification_table")
	}

	lines := strings.Split(table, "\n")
	if lines[0] != "| Dimension | IS | IS NOT |" {
		t.Errorf("header row not normalized: %q", lines[0])
	}
	for _, l := range lines {
		if strings.Contains(l, "---|") {
			t.Errorf("divider line should be dropped: %q", l)
		}
	}
	if !strings.Contains(table, "plain text note") {
		t.Error("plain text line should pass through unchanged")
	}

	if _, ok := sections["problem_analysis"]; !ok {
		t.Error("expected problem_analysis from all-caps header")
	}
	if s, _ := sections["root_cause_analysis"].(string); !strings.Contains(s, "bucket index") {
		t.Errorf("root_cause_analysis content wrong: %q", s)
	}
}

func TestExtractSections_Empty(t *testing.T) {
	sections := DialectFor(TypeFormal).ExtractSections("")
	if len(sections) != 0 {
		t.Errorf("expected no sections for empty input, got %v", sections)
	}
}

func TestCleanTable(t *testing.T) {
	in := "  a | b  \n---|---\nplain text"
	got := CleanTable(in)
	want := "| a | b |\nplain text"
	if got != want {
		t.Errorf("CleanTable = %q, want %q", got, want)
	}
}

func TestCleanTable_DropsBlankAndRuleLines(t *testing.T) {
	in := "| x | y |\n\n====\n| 1 | 2"
	got := CleanTable(in)
	want := "| x | y |\n| 1 | 2 |"
	if got != want {
		t.Errorf("CleanTable = %q, want %q", got, want)
	}
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"2. Problem Specification (IS/IS NOT Analysis)": "problem_specification_is_is_not_analysis",
		"Observed Symptoms":                             "observed_symptoms",
		"--":                                            "",
		"a":                                             "",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
