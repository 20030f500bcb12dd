// Package llm routes completion requests across configured model providers
// with deterministic fallback. Providers are tried in order until one
// returns a non-empty completion.
package llm

import (
	"context"
	"time"
)

// Request is a provider-independent completion request. Model is optional;
// providers fall back to their configured default model when it is empty.
type Request struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int64
	Temperature *float64
}

// Provider generates completions from one upstream model API.
type Provider interface {
	// Name identifies the provider in logs, attempt records, and config.
	Name() string
	// Generate returns the completion text for a request. An empty
	// completion is an error, never an empty string with nil error.
	Generate(ctx context.Context, req Request) (string, error)
}

// Attempt records one provider try during a generation. Err is nil on the
// successful attempt.
type Attempt struct {
	Provider string
	Duration time.Duration
	Err      error
}
