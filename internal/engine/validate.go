package engine

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/oncall-tools/rca-cli/internal/store"
)

// listProbe is the cheapest query that exercises the store.
var listProbe = store.Filter{Limit: 1}

// Validate checks that every component the engine needs is usable and
// returns a per-component verdict. It never errors; missing components
// simply report false so the CLI can print a readiness summary.
func (e *Engine) Validate(ctx context.Context) map[string]bool {
	checks := map[string]bool{
		"llm_providers":     e.orch != nil,
		"prompts_available": len(e.prompts.Available()) > 0,
		"source_collection": e.collector != nil,
		"store":             e.storeReachable(ctx),
	}

	if e.outputDir == "" {
		checks["output_directory"] = false
	} else {
		info, err := os.Stat(e.outputDir)
		checks["output_directory"] = err == nil && info.IsDir()
	}

	zap.L().Info("engine: configuration validated", zap.Any("checks", checks))
	return checks
}

func (e *Engine) storeReachable(ctx context.Context) bool {
	if e.store == nil {
		return false
	}
	// Listing with a limit of one exercises the connection and schema.
	_, err := e.store.ListAnalyses(ctx, listProbe)
	return err == nil
}
