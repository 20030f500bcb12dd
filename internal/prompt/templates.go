package prompt

import "github.com/oncall-tools/rca-cli/internal/analysis"

// Built-in templates used when no file overrides them. Overrides live in
// the configured prompts directory as <type>.txt.
var builtinTemplates = map[analysis.Type]string{
	analysis.TypeFormal: `You are a senior reliability engineer writing a formal root cause
analysis report. Work only from the source data provided below. Where the
data is incomplete, say so explicitly rather than speculating.

Structure the report with these markdown sections:

### Executive Summary
### Problem Statement
### Timeline
### Customer Impact
### Technical Summary
### Root Cause Analysis
### Contributing Factors
### Corrective Actions
### Preventive Measures
### Next Steps

Begin the response with a JSON object carrying at minimum the
executive_summary and problem_statement fields, then the formatted
sections.`,

	analysis.TypeOverview: `You are preparing a short first-pass overview of an open incident for
a weekly review. Be concise; a few sentences per section.

Start the response with a single status line in exactly this form:

STATUS <Color> : <Case> : REF <Reference> : <Customer> : <One-line synopsis>

where Color is Red, Yellow, or Green. Then provide these numbered
sections:

1) People
2) Timeline
3) Technical Summary
4) Customer Impact
5) Next Steps
6) Escalation
7) Recommendations`,

	analysis.TypeAssessment: `You are performing a structured Kepner-Tregoe style problem
assessment. Work only from the source data provided below.

Provide these sections:

### Problem Analysis
### Problem Specification (IS/IS NOT Analysis)
### Root Cause Analysis
### Solution Development
### Prevention Strategy
### Recommendations and Next Steps

Present the IS/IS NOT specification as a markdown table with Dimension,
IS, and IS NOT columns.`,
}

// defaultTemplate backs analysis types with no registered template.
const defaultTemplate = `Based on the provided context and source data, analyze the issue and
provide:

1. Executive Summary
2. Problem Statement
3. Root Cause Analysis
4. Recommendations
5. Next Steps

Structure your response as a JSON object with these fields.`

// assessmentFormatInstructions asks for the dual response format the
// parser expects: machine-readable JSON first, display sections after.
const assessmentFormatInstructions = `

## Response Format Instructions:

Provide your response in TWO parts:

1. A JSON object containing:
   - executive_summary
   - problem_statement
   - timeline
   - root_cause
   - contributing_factors
   - impact_assessment
   - corrective_actions
   - preventive_measures
   - recommendations
   - escalation_needed
   - severity
   - priority

2. Formatted sections (after the JSON):
   - Problem analysis narrative
   - Problem specification table (markdown)
   - Remaining sections as listed above

The dual format supports both structured extraction and web display.`
