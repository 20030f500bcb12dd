// Package store persists completed analyses.
package store

import (
	"context"

	"github.com/oncall-tools/rca-cli/internal/analysis"
)

// Filter specifies criteria for listing analyses.
type Filter struct {
	Type   analysis.Type `json:"analysis_type,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis records.
type Store interface {
	// SaveAnalysis inserts a record, assigning ID and CreatedAt when unset.
	SaveAnalysis(ctx context.Context, rec *analysis.Record) error
	GetAnalysis(ctx context.Context, id string) (*analysis.Record, error)
	ListAnalyses(ctx context.Context, filter Filter) ([]analysis.Record, error)

	Migrate(ctx context.Context) error
	Close() error
}
