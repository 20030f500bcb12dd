package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls transient-failure retries within a single provider
// attempt, with exponential backoff and jitter between tries.
type RetryPolicy struct {
	// MaxTries is the total number of calls to the provider (including the
	// first). A value of 1 disables retries. Default: 2.
	MaxTries int

	// InitialBackoff is the base delay before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 15s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each try. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64
}

// DefaultRetryPolicy returns the retry configuration used for provider
// calls. The orchestrator already falls back across providers, so within a
// single provider only one quick retry is worthwhile.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:       2,
		InitialBackoff: time.Second,
		MaxBackoff:     15 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxTries <= 0 {
		p.MaxTries = 2
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 15 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// retryTransient calls fn up to policy.MaxTries times, sleeping with
// exponential backoff between tries. Only transient errors are retried;
// context cancellation stops retries immediately.
func retryTransient(ctx context.Context, policy RetryPolicy, provider string, fn func(ctx context.Context) (string, error)) (string, error) {
	policy = policy.withDefaults()

	var lastErr error
	for try := 0; try < policy.MaxTries; try++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", lastErr
		}
		if !isTransient(lastErr) {
			return "", lastErr
		}
		if try >= policy.MaxTries-1 {
			break
		}

		delay := backoffDelay(try, policy)
		zap.L().Warn("llm: transient provider error, retrying",
			zap.String("provider", provider),
			zap.Int("try", try+1),
			zap.Duration("backoff", delay),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", lastErr
		case <-timer.C:
		}
	}

	return "", lastErr
}

func backoffDelay(try int, policy RetryPolicy) time.Duration {
	delay := float64(policy.InitialBackoff) * math.Pow(policy.Multiplier, float64(try))
	if delay > float64(policy.MaxBackoff) {
		delay = float64(policy.MaxBackoff)
	}

	if policy.JitterFraction > 0 {
		jitterRange := delay * policy.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// isTransient reports whether an error from a provider is worth retrying:
// rate limits, overloaded upstreams, and network-level failures. API errors
// from the LLM SDKs surface the HTTP status in the message, so string
// heuristics cover the wrapped cases.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"429",
		"rate limit",
		"overloaded",
		"status code: 500",
		"status code: 502",
		"status code: 503",
		"status code: 504",
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
