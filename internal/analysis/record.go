package analysis

import "time"

// Record is one completed analysis as persisted and served over the API.
type Record struct {
	ID        string    `json:"id"`
	Type      Type      `json:"analysis_type"`
	Issue     string    `json:"issue_description,omitempty"`
	Result    Parsed    `json:"analysis"`
	Sources   []string  `json:"sources_used"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`

	// Output artifact paths, set when the engine writes reports to disk.
	DocumentPath string `json:"document_path,omitempty"`
	ReportPath   string `json:"json_path,omitempty"`
}
