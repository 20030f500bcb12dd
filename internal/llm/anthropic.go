package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/oncall-tools/rca-cli/pkg/anthropic"
)

// AnthropicProvider serves completions through the Anthropic Messages API.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicProvider wraps an Anthropic client as a Provider.
func NewAnthropicProvider(client anthropic.Client, defaultModel string) *AnthropicProvider {
	return &AnthropicProvider{client: client, defaultModel: defaultModel}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	msgReq := anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.System != "" {
		// The system prompt is stable across analyses, so mark it cacheable.
		msgReq.System = anthropic.BuildCachedSystemBlocks(req.System)
	}

	resp, err := p.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic generate")
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	resp.Usage.LogCost(model, "analysis")
	return b.String(), nil
}
