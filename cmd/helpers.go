package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oncall-tools/rca-cli/internal/collect"
	"github.com/oncall-tools/rca-cli/internal/config"
	"github.com/oncall-tools/rca-cli/internal/engine"
	"github.com/oncall-tools/rca-cli/internal/llm"
	"github.com/oncall-tools/rca-cli/internal/prompt"
	"github.com/oncall-tools/rca-cli/internal/store"
	anthropicpkg "github.com/oncall-tools/rca-cli/pkg/anthropic"
	"github.com/oncall-tools/rca-cli/pkg/jina"
	"github.com/oncall-tools/rca-cli/pkg/jira"
	"github.com/oncall-tools/rca-cli/pkg/perplexity"
)

// buildRegistry registers a provider for every configured credential.
// Registration order fixes the fallback order after the preferred and
// default providers.
func buildRegistry(cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry()

	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		reg.Register(llm.NewAnthropicProvider(client, cfg.Anthropic.Model))
	}
	if cfg.OpenAI.Key != "" {
		reg.Register(llm.NewOpenAIProvider("openai", cfg.OpenAI.Key, cfg.OpenAI.BaseURL, cfg.OpenAI.Model))
	}
	if cfg.OpenRouter.Key != "" {
		reg.Register(llm.NewOpenAIProvider("openrouter", cfg.OpenRouter.Key, cfg.OpenRouter.BaseURL, cfg.OpenRouter.Model))
	}
	if cfg.Proxy.BaseURL != "" {
		reg.Register(llm.NewOpenAIProvider("proxy", cfg.Proxy.Key, cfg.Proxy.BaseURL, cfg.Proxy.Model))
	}
	if cfg.Perplexity.Key != "" {
		var opts []perplexity.Option
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		reg.Register(llm.NewPerplexityProvider(perplexity.NewClient(cfg.Perplexity.Key, opts...), cfg.Perplexity.Model))
	}

	if reg.Len() == 0 {
		return nil, eris.New("no llm providers configured; set at least one provider key")
	}

	// A default naming a provider without credentials is not fatal; the
	// fallback chain just starts from registration order.
	if cfg.LLM.DefaultProvider != "" {
		if err := reg.SetDefault(cfg.LLM.DefaultProvider); err != nil {
			zap.L().Warn("default provider not configured, using registration order",
				zap.String("provider", cfg.LLM.DefaultProvider),
			)
		}
	}
	return reg, nil
}

// buildCollector wires the configured source readers.
func buildCollector(cfg *config.Config) *collect.Collector {
	var web collect.URLReader
	if cfg.Jina.Key != "" {
		web = collect.NewJinaReader(jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL)))
	}
	var tickets collect.TicketReader
	if cfg.Jira.BaseURL != "" {
		tickets = collect.NewJiraReader(jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.Token))
	}
	return collect.NewCollector(web, tickets)
}

// initStore opens and migrates the analysis database.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// initEngine builds the full analysis engine from configuration. The
// returned close function releases the store.
func initEngine(ctx context.Context) (*engine.Engine, store.Store, func(), error) {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Orchestrator: llm.NewOrchestrator(reg, time.Duration(cfg.LLM.AttemptTimeoutSecs)*time.Second),
		Prompts:      prompt.NewManager(cfg.Prompts.Dir),
		Collector:    buildCollector(cfg),
		Store:        st,
		OutputDir:    cfg.Output.Dir,
		SystemPrompt: cfg.Prompts.System,
		MaxTokens:    cfg.Generation.MaxTokens,
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	return eng, st, func() { _ = st.Close() }, nil
}
