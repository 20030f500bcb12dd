package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncall-tools/rca-cli/pkg/anthropic"
	"github.com/oncall-tools/rca-cli/pkg/perplexity"
)

type fakeAnthropicClient struct {
	lastReq anthropic.MessageRequest
	resp    *anthropic.MessageResponse
	err     error
}

func (f *fakeAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestAnthropicProvider_Generate(t *testing.T) {
	client := &fakeAnthropicClient{
		resp: &anthropic.MessageResponse{
			ID: "msg_1",
			Content: []anthropic.ContentBlock{
				{Type: "text", Text: "part one "},
				{Type: "tool_use", Text: "ignored"},
				{Type: "text", Text: "part two"},
			},
		},
	}
	p := NewAnthropicProvider(client, "claude-sonnet-4-5-20250929")

	text, err := p.Generate(context.Background(), Request{
		System:    "You are an analyst.",
		Prompt:    "Analyze this.",
		MaxTokens: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", text)

	assert.Equal(t, "claude-sonnet-4-5-20250929", client.lastReq.Model)
	assert.Equal(t, int64(1024), client.lastReq.MaxTokens)
	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "user", client.lastReq.Messages[0].Role)
	require.Len(t, client.lastReq.System, 1)
	assert.Equal(t, "You are an analyst.", client.lastReq.System[0].Text)
	assert.NotNil(t, client.lastReq.System[0].CacheControl)
}

func TestAnthropicProvider_ModelOverride(t *testing.T) {
	client := &fakeAnthropicClient{
		resp: &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "ok"}},
		},
	}
	p := NewAnthropicProvider(client, "claude-sonnet-4-5-20250929")

	_, err := p.Generate(context.Background(), Request{
		Prompt: "hi",
		Model:  "claude-haiku-4-5-20251001",
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", client.lastReq.Model)
	assert.Empty(t, client.lastReq.System)
}

type fakePerplexityClient struct {
	lastReq perplexity.ChatCompletionRequest
	resp    *perplexity.ChatCompletionResponse
	err     error
}

func (f *fakePerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestPerplexityProvider_Generate(t *testing.T) {
	client := &fakePerplexityClient{
		resp: &perplexity.ChatCompletionResponse{
			ID: "cmpl_1",
			Choices: []perplexity.Choice{
				{Message: perplexity.Message{Role: "assistant", Content: "answer"}},
			},
		},
	}
	p := NewPerplexityProvider(client, "sonar-pro")
	assert.Equal(t, "perplexity", p.Name())

	text, err := p.Generate(context.Background(), Request{
		System:    "system prompt",
		Prompt:    "question",
		MaxTokens: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", text)

	assert.Equal(t, "sonar-pro", client.lastReq.Model)
	require.Len(t, client.lastReq.Messages, 2)
	assert.Equal(t, "system", client.lastReq.Messages[0].Role)
	assert.Equal(t, "user", client.lastReq.Messages[1].Role)
	require.NotNil(t, client.lastReq.MaxTokens)
	assert.Equal(t, 500, *client.lastReq.MaxTokens)
}

func TestPerplexityProvider_NoChoices(t *testing.T) {
	client := &fakePerplexityClient{
		resp: &perplexity.ChatCompletionResponse{},
	}
	p := NewPerplexityProvider(client, "sonar-pro")

	_, err := p.Generate(context.Background(), Request{Prompt: "question"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/chat/completions")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "completion text",
					},
				},
			},
		})
	}))
	defer ts.Close()

	p := NewOpenAIProvider("openai", "test-key", ts.URL, "gpt-4o")
	assert.Equal(t, "openai", p.Name())

	text, err := p.Generate(context.Background(), Request{
		System: "be terse",
		Prompt: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "completion text", text)

	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestOpenAIProvider_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer ts.Close()

	p := NewOpenAIProvider("openrouter", "bad-key", ts.URL, "gpt-4o")
	_, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openrouter generate")
}
