package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncall-tools/rca-cli/internal/analysis"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &analysis.Record{
		Type:  analysis.TypeFormal,
		Issue: "cluster failover stuck",
		Result: analysis.Parsed{
			analysis.FieldRawResponse:      "### Root Cause\nstale quorum record",
			"root_cause":                   "stale quorum record",
			analysis.FieldExecutiveSummary: "failover stalled for 40 minutes",
		},
		Sources:  []string{"File: node.log", "Ticket: OPS-1"},
		Provider: "anthropic",
	}

	require.NoError(t, s.SaveAnalysis(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.GetAnalysis(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.TypeFormal, got.Type)
	assert.Equal(t, "cluster failover stuck", got.Issue)
	assert.Equal(t, "stale quorum record", got.Result.String("root_cause"))
	assert.Equal(t, rec.Sources, got.Sources)
	assert.Equal(t, "anthropic", got.Provider)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAnalysis(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListAnalyses_FilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, typ := range []analysis.Type{analysis.TypeFormal, analysis.TypeOverview, analysis.TypeFormal} {
		rec := &analysis.Record{
			Type:      typ,
			Result:    analysis.Parsed{analysis.FieldRawResponse: "x"},
			Sources:   []string{},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.SaveAnalysis(ctx, rec))
	}

	all, err := s.ListAnalyses(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	formal, err := s.ListAnalyses(ctx, Filter{Type: analysis.TypeFormal})
	require.NoError(t, err)
	assert.Len(t, formal, 2)

	one, err := s.ListAnalyses(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, all[1].ID, one[0].ID)
}
