package analysis

import (
	"regexp"
	"strings"
)

// minSectionChars is the minimum content length for a section to be kept.
// Anything shorter is treated as noise, not stored as an empty section.
const minSectionChars = 10

// minNamedSections is the threshold below which the broader
// catch-remaining-headings pass runs.
const minNamedSections = 3

// SectionRule maps heading keywords to a canonical field name. Keywords are
// lowercase; when several rules match a heading, the longest keyword wins,
// with table order breaking ties.
type SectionRule struct {
	Field    string
	Keywords []string
	Table    bool // section content holds a markdown table
}

// Dialect is the static section map for one analysis type. Dialects are
// built once at init and never mutated.
type Dialect struct {
	Type       Type
	Rules      []SectionRule
	StatusLine bool // parse the leading STATUS line (overview reports)
}

var dialects = map[Type]*Dialect{
	TypeFormal: {
		Type: TypeFormal,
		Rules: []SectionRule{
			{Field: FieldExecutiveSummary, Keywords: []string{"executive summary"}},
			{Field: FieldProblemStatement, Keywords: []string{"problem statement"}},
			{Field: "timeline", Keywords: []string{"timeline"}},
			{Field: "customer_impact", Keywords: []string{"customer impact", "impact"}},
			{Field: "technical_summary", Keywords: []string{"technical summary"}},
			{Field: "root_cause", Keywords: []string{"root cause analysis", "root cause", "cause"}},
			{Field: "contributing_factors", Keywords: []string{"contributing factors"}},
			{Field: "corrective_actions", Keywords: []string{"corrective actions"}},
			{Field: "next_steps", Keywords: []string{"next steps"}},
			{Field: "prevention", Keywords: []string{"preventive measures", "prevention"}},
			{Field: "escalation", Keywords: []string{"escalation"}},
			{Field: "recommendations", Keywords: []string{"recommendations"}},
		},
	},
	TypeOverview: {
		Type:       TypeOverview,
		StatusLine: true,
		Rules: []SectionRule{
			{Field: "people", Keywords: []string{"people"}},
			{Field: "timeline", Keywords: []string{"timeline"}},
			{Field: "technical_summary", Keywords: []string{"technical summary"}},
			{Field: "impact", Keywords: []string{"customer impact", "impact"}},
			{Field: "next_steps", Keywords: []string{"next steps"}},
			{Field: "escalation", Keywords: []string{"escalation"}},
			{Field: "recommendations", Keywords: []string{"recommendations"}},
		},
	},
	TypeAssessment: {
		Type: TypeAssessment,
		Rules: []SectionRule{
			{Field: "problem_analysis", Keywords: []string{"kepner-tregoe problem analysis", "problem analysis"}},
			{Field: "specification_table", Keywords: []string{"problem specification", "is/is not"}, Table: true},
			{Field: "root_cause_analysis", Keywords: []string{"root cause analysis", "root cause"}},
			{Field: "solution_development", Keywords: []string{"solution development"}},
			{Field: "prevention_strategy", Keywords: []string{"prevention strategy", "prevention"}},
			{Field: "recommendations", Keywords: []string{"recommendations and next steps", "recommendations"}},
		},
	},
}

// DialectFor returns the static dialect for an analysis type, or nil for
// types without section structure.
func DialectFor(typ Type) *Dialect {
	return dialects[typ]
}

// Heading forms, most to least explicit:
//   - strong: markdown headers, "SECTION N" labels, "--" rules
//   - enum:   "A." / "1)" style enumerations
//   - bare:   a short line holding nothing but a section name
//
// Strong headings always bound sections; enum and bare lines only count
// when they resolve to a configured field, so numbered list items inside a
// section do not split it.
var (
	strongHeadingPattern = regexp.MustCompile(`(?mi)^[ \t]*(?:#{1,6}[ \t]+|section[ \t]+\d{1,2}[ \t]*[-:.]?[ \t]*|--+[ \t]*)([^\n]+?)[ \t]*:?[ \t]*$`)
	enumHeadingPattern   = regexp.MustCompile(`(?m)^[ \t]*(?:[A-Za-z][.)]|\d{1,2}[.)])[ \t]+([^\n]+?)[ \t]*:?[ \t]*$`)
	bareHeadingPattern   = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][A-Za-z0-9 /&'-]{1,60}?)[ \t]*:?[ \t]*$`)
)

// statusLinePattern matches the overview status line:
// STATUS <Color> : <Case> : REF <Ref> : <Customer> : <Synopsis>
var statusLinePattern = regexp.MustCompile(`(?i)STATUS\s+([^:\n]+?)\s*:\s*([^:\n]+?)\s*:\s*REF\s+([^:\n]+?)\s*:\s*([^:\n]+?)\s*:\s*([^\n]+)`)

type headingKind int

const (
	headingStrong headingKind = iota
	headingEnum
	headingBare
)

type headingMatch struct {
	start        int // offset of the heading line
	contentStart int // offset just past the heading line
	label        string
	kind         headingKind
	field        string // resolved field name, "" when unresolved
	table        bool
}

// ExtractSections extracts the dialect's named sections from text. When
// fewer than minNamedSections configured sections are found, unmapped
// strong headings are also captured under snake_cased field names so
// genuinely unstructured but informative output is not discarded.
func (d *Dialect) ExtractSections(text string) map[string]any {
	out := make(map[string]any)
	if text == "" {
		return out
	}

	if d.StatusLine {
		d.extractStatusLine(text, out)
	}

	headings := d.scanHeadings(text)

	named := 0
	for i, h := range headings {
		if h.field == "" {
			continue
		}
		if _, exists := out[h.field]; exists {
			continue
		}
		content := sectionContent(text, headings, i)
		if len(content) < minSectionChars {
			continue
		}
		if h.table {
			content = CleanTable(content)
		}
		out[h.field] = content
		named++
	}

	if named < minNamedSections {
		for i, h := range headings {
			if h.field != "" || h.kind != headingStrong {
				continue
			}
			field := snakeCase(h.label)
			if field == "" {
				continue
			}
			if _, exists := out[field]; exists {
				continue
			}
			content := sectionContent(text, headings, i)
			if len(content) < minSectionChars {
				continue
			}
			out[field] = content
		}
	}

	return out
}

// scanHeadings finds every heading candidate in document order. A line can
// match more than one form; the most explicit one wins.
func (d *Dialect) scanHeadings(text string) []headingMatch {
	byLine := make(map[int]headingMatch)

	collect := func(pattern *regexp.Regexp, kind headingKind) {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			label := text[m[2]:m[3]]
			if strings.Contains(label, "|") {
				continue // table row, never a heading
			}
			h := headingMatch{
				start:        m[0],
				contentStart: m[1],
				label:        label,
				kind:         kind,
			}
			h.field, h.table = d.resolve(label, kind)
			if existing, ok := byLine[h.start]; ok && existing.kind <= kind {
				continue
			}
			byLine[h.start] = h
		}
	}

	collect(strongHeadingPattern, headingStrong)
	collect(enumHeadingPattern, headingEnum)
	collect(bareHeadingPattern, headingBare)

	var headings []headingMatch
	for _, h := range byLine {
		// Unresolved enum and bare lines are ordinary content.
		if h.field == "" && h.kind != headingStrong {
			continue
		}
		headings = append(headings, h)
	}

	// Insertion sort by offset; heading counts are small.
	for i := 1; i < len(headings); i++ {
		for j := i; j > 0 && headings[j].start < headings[j-1].start; j-- {
			headings[j], headings[j-1] = headings[j-1], headings[j]
		}
	}

	return headings
}

// resolve maps a heading label to a configured field. The longest matching
// keyword wins; ties fall to table order. Bare lines must equal a keyword
// exactly and enumerated lines must start with one, so prose that merely
// mentions a keyword is not promoted to a heading.
func (d *Dialect) resolve(label string, kind headingKind) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return "", false
	}

	bestField := ""
	bestTable := false
	bestLen := 0

	for _, r := range d.Rules {
		for _, kw := range r.Keywords {
			if len(kw) <= bestLen {
				continue
			}
			var hit bool
			switch kind {
			case headingStrong:
				hit = strings.Contains(lower, kw)
			case headingEnum:
				hit = lower == kw || strings.HasPrefix(lower, kw+" ")
			case headingBare:
				hit = lower == kw
			}
			if hit {
				bestField = r.Field
				bestTable = r.Table
				bestLen = len(kw)
			}
		}
	}

	return bestField, bestTable
}

// sectionContent returns the trimmed text between heading i and the next
// heading.
func sectionContent(text string, headings []headingMatch, i int) string {
	start := headings[i].contentStart
	end := len(text)
	if i+1 < len(headings) {
		end = headings[i+1].start
	}
	return strings.TrimSpace(text[start:end])
}

func (d *Dialect) extractStatusLine(text string, out map[string]any) {
	m := statusLinePattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	out["status_color"] = strings.TrimSpace(m[1])
	out["case_id"] = strings.TrimSpace(m[2])
	out["reference_id"] = strings.TrimSpace(m[3])
	out["customer_name"] = strings.TrimSpace(m[4])
	out["synopsis"] = strings.TrimSpace(m[5])
}

// CleanTable normalizes markdown table content for display. Rows gain
// leading/trailing separators, divider lines are dropped, and non-table
// lines pass through unchanged.
func CleanTable(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleaned []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isDividerLine(line) {
			continue
		}
		if strings.Contains(line, "|") {
			if !strings.HasPrefix(line, "|") {
				line = "| " + line
			}
			if !strings.HasSuffix(line, "|") {
				line = line + " |"
			}
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

// isDividerLine reports whether a line is purely table/rule punctuation.
func isDividerLine(s string) bool {
	seen := false
	for _, r := range s {
		switch r {
		case '-', '|', ':', ' ', '\t', '=':
			if r == '-' || r == '=' {
				seen = true
			}
		default:
			return false
		}
	}
	return seen
}

// snakeCase converts a heading label to a field name: lowercase,
// non-alphanumeric runs collapsed to underscores, leading enumeration
// stripped.
func snakeCase(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	lower = strings.TrimLeft(lower, "0123456789.-) \t")

	var b strings.Builder
	lastUnderscore := true // suppress leading underscore
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	field := strings.Trim(b.String(), "_")
	if len(field) < 3 {
		return ""
	}
	return field
}
