package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/oncall-tools/rca-cli/pkg/perplexity"
)

// PerplexityProvider serves completions through the Perplexity chat API.
type PerplexityProvider struct {
	client       perplexity.Client
	defaultModel string
}

// NewPerplexityProvider wraps a Perplexity client as a Provider.
func NewPerplexityProvider(client perplexity.Client, defaultModel string) *PerplexityProvider {
	return &PerplexityProvider{client: client, defaultModel: defaultModel}
}

func (p *PerplexityProvider) Name() string { return "perplexity" }

func (p *PerplexityProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var messages []perplexity.Message
	if req.System != "" {
		messages = append(messages, perplexity.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, perplexity.Message{Role: "user", Content: req.Prompt})

	chatReq := perplexity.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		maxTokens := int(req.MaxTokens)
		chatReq.MaxTokens = &maxTokens
	}

	resp, err := p.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return "", eris.Wrap(err, "llm: perplexity generate")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("llm: perplexity returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
