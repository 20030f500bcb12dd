package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// defaultAttemptTimeout bounds a single provider attempt when no timeout is
// configured.
const defaultAttemptTimeout = 120 * time.Second

// ExhaustedError is returned when every provider in the attempt order
// failed. It carries the last provider's error as its cause so callers see
// the most recent failure, plus the full attempt record.
type ExhaustedError struct {
	LastProvider string
	Attempts     []Attempt
	cause        error
}

func (e *ExhaustedError) Error() string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Provider
	}
	return fmt.Sprintf("llm: all providers failed (%s): %v",
		strings.Join(names, ", "), e.cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.cause
}

// Orchestrator runs completion requests against the registry's providers
// with per-attempt timeouts and sequential fallback.
type Orchestrator struct {
	registry       *Registry
	attemptTimeout time.Duration
	retry          RetryPolicy
}

// NewOrchestrator creates an orchestrator over a registry. attemptTimeout
// bounds each individual provider call; zero selects the default.
func NewOrchestrator(registry *Registry, attemptTimeout time.Duration) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &Orchestrator{
		registry:       registry,
		attemptTimeout: attemptTimeout,
		retry:          DefaultRetryPolicy(),
	}
}

// SetRetryPolicy replaces the transient-retry policy applied within each
// provider attempt.
func (o *Orchestrator) SetRetryPolicy(policy RetryPolicy) {
	o.retry = policy
}

// Generate tries providers one at a time in deterministic order: preferred
// first, then the default, then registration order. The first non-empty
// completion wins. When every provider fails the returned error is an
// *ExhaustedError whose cause is the last provider's error. The attempt
// record is returned in both cases.
func (o *Orchestrator) Generate(ctx context.Context, req Request, preferred string) (string, []Attempt, error) {
	order := o.registry.AttemptOrder(preferred)
	if len(order) == 0 {
		return "", nil, eris.New("llm: no providers registered")
	}

	var attempts []Attempt
	var lastErr error
	lastProvider := ""

	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return "", attempts, eris.Wrap(err, "llm: generation canceled")
		}

		start := time.Now()
		text, err := o.generateOne(ctx, p, req)
		elapsed := time.Since(start)

		attempts = append(attempts, Attempt{
			Provider: p.Name(),
			Duration: elapsed,
			Err:      err,
		})

		if err == nil {
			zap.L().Info("llm: completion succeeded",
				zap.String("provider", p.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Int("attempts", len(attempts)),
			)
			return text, attempts, nil
		}

		zap.L().Warn("llm: provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		lastErr = err
		lastProvider = p.Name()
	}

	return "", attempts, &ExhaustedError{
		LastProvider: lastProvider,
		Attempts:     attempts,
		cause:        lastErr,
	}
}

func (o *Orchestrator) generateOne(ctx context.Context, p Provider, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	// Transient failures (rate limits, resets) get a quick retry before the
	// orchestrator moves on to the next provider.
	text, err := retryTransient(attemptCtx, o.retry, p.Name(), func(ctx context.Context) (string, error) {
		return p.Generate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("llm: provider %s returned empty completion", p.Name())
	}
	return text, nil
}
