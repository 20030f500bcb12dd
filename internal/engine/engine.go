// Package engine coordinates a full analysis: source collection, prompt
// assembly, resilient completion, parsing, and persistence.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oncall-tools/rca-cli/internal/analysis"
	"github.com/oncall-tools/rca-cli/internal/collect"
	"github.com/oncall-tools/rca-cli/internal/llm"
	"github.com/oncall-tools/rca-cli/internal/prompt"
	"github.com/oncall-tools/rca-cli/internal/store"
)

// Options tunes one analysis run. Zero values fall back to provider and
// engine defaults.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int64
	Temperature *float64
}

// GenerateRequest describes a complete analysis job.
type GenerateRequest struct {
	Type    analysis.Type
	Issue   string
	Files   []string
	URLs    []string
	Tickets []string
	Extra   string
	Options Options
}

// Engine wires the analysis pipeline together. Store may be nil for
// one-shot runs without persistence; OutputDir may be empty to skip
// writing report artifacts.
type Engine struct {
	orch      *llm.Orchestrator
	prompts   *prompt.Manager
	collector *collect.Collector
	store     store.Store
	outputDir string

	system    string
	maxTokens int64
}

// Config holds the engine's construction parameters.
type Config struct {
	Orchestrator *llm.Orchestrator
	Prompts      *prompt.Manager
	Collector    *collect.Collector
	Store        store.Store
	OutputDir    string
	SystemPrompt string
	MaxTokens    int64
}

// New creates an engine. Orchestrator and Prompts are required.
func New(cfg Config) (*Engine, error) {
	if cfg.Orchestrator == nil {
		return nil, eris.New("engine: orchestrator is required")
	}
	if cfg.Prompts == nil {
		return nil, eris.New("engine: prompt manager is required")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &Engine{
		orch:      cfg.Orchestrator,
		prompts:   cfg.Prompts,
		collector: cfg.Collector,
		store:     cfg.Store,
		outputDir: cfg.OutputDir,
		system:    cfg.SystemPrompt,
		maxTokens: maxTokens,
	}, nil
}

// Run executes one analysis over already-collected source data: build the
// prompt, obtain a completion with provider fallback, and parse it. The
// returned record is always populated on success; parsing is total, so a
// completion that resists extraction yields a degraded record, not an
// error.
func (e *Engine) Run(ctx context.Context, typ analysis.Type, issue, sourceData, extra string, opts Options) (analysis.Parsed, []llm.Attempt, error) {
	p := e.prompts.Build(typ, issue, sourceData, extra)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = e.maxTokens
	}

	text, attempts, err := e.orch.Generate(ctx, llm.Request{
		System:      e.system,
		Prompt:      p,
		Model:       opts.Model,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	}, opts.Provider)
	if err != nil {
		// Returned unwrapped so callers can inspect *llm.ExhaustedError.
		return nil, attempts, err
	}

	return analysis.Parse(text, typ), attempts, nil
}

// Generate runs the full pipeline: collect sources, analyze, persist, and
// write report artifacts. Source collection is best effort; a completion
// failure across all providers is the only fatal error.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*analysis.Record, error) {
	start := time.Now()

	bundle, err := e.collectSources(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed, attempts, err := e.Run(ctx, req.Type, req.Issue, bundle.Text, req.Extra, req.Options)
	if err != nil {
		return nil, err
	}

	if _, ok := parsed[analysis.FieldSourcesUsed]; !ok {
		parsed[analysis.FieldSourcesUsed] = bundle.Sources
	}

	rec := &analysis.Record{
		Type:      req.Type,
		Issue:     req.Issue,
		Result:    parsed,
		Sources:   bundle.Sources,
		Provider:  successfulProvider(attempts),
		CreatedAt: time.Now().UTC(),
	}

	if err := e.writeArtifacts(rec); err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.SaveAnalysis(ctx, rec); err != nil {
			return nil, eris.Wrap(err, "engine: save analysis")
		}
	}

	zap.L().Info("engine: analysis complete",
		zap.String("type", string(req.Type)),
		zap.String("provider", rec.Provider),
		zap.Int("attempts", len(attempts)),
		zap.Int("sources", len(bundle.Sources)),
		zap.Int("failed_sources", bundle.Failed),
		zap.Bool("degraded", parsed.Degraded()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rec, nil
}

func (e *Engine) collectSources(ctx context.Context, req GenerateRequest) (*collect.Bundle, error) {
	creq := collect.Request{Files: req.Files, URLs: req.URLs, Tickets: req.Tickets}
	if e.collector == nil {
		return &collect.Bundle{
			Text:    "No source data available for analysis.",
			Sources: collect.SourceList(creq),
		}, nil
	}
	bundle, err := e.collector.Collect(ctx, creq)
	if err != nil {
		return nil, eris.Wrap(err, "engine: collect sources")
	}
	return bundle, nil
}

// writeArtifacts saves the JSON report for every run and a markdown
// document for the formal type, mirroring how completed analyses are
// handed to reviewers.
func (e *Engine) writeArtifacts(rec *analysis.Record) error {
	if e.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return eris.Wrap(err, "engine: create output dir")
	}

	stamp := rec.CreatedAt.Format("20060102_150405")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "engine: marshal report")
	}
	jsonPath := filepath.Join(e.outputDir, fmt.Sprintf("%s_%s.json", rec.Type, stamp))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return eris.Wrap(err, "engine: write json report")
	}
	rec.ReportPath = jsonPath

	if rec.Type == analysis.TypeFormal {
		docPath := filepath.Join(e.outputDir, fmt.Sprintf("%s_%s.md", rec.Type, stamp))
		if err := os.WriteFile(docPath, []byte(RenderMarkdown(rec)), 0o644); err != nil {
			return eris.Wrap(err, "engine: write document")
		}
		rec.DocumentPath = docPath
	}
	return nil
}

func successfulProvider(attempts []llm.Attempt) string {
	for _, a := range attempts {
		if a.Err == nil {
			return a.Provider
		}
	}
	return ""
}

// AvailableTypes lists the analysis types prompts exist for.
func (e *Engine) AvailableTypes() []string {
	return e.prompts.Available()
}
