package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/versecraft/melodia-api/internal/logger"
)

// RetryPolicy controls how recoverable call failures are retried.
type RetryPolicy struct {
	MaxRetries int           // Retries after the first attempt; total attempts = MaxRetries + 1
	BaseDelay  time.Duration // Delay before the first retry
	Multiplier float64       // Backoff multiplier per attempt
}

// DefaultRetryPolicy matches the production defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Multiplier: 2.0,
	}
}

// Invoker executes single provider calls with a per-call timeout, response
// shape validation and retry with exponential backoff. Rate-limit, timeout,
// connection and invalid-shape failures are retried; everything else
// propagates immediately.
type Invoker struct {
	provider Provider
	policy   RetryPolicy
	timeout  time.Duration

	// sleep is swappable so tests do not wait out real backoff delays.
	sleep func(time.Duration)
}

// NewInvoker creates an invoker around a provider.
func NewInvoker(provider Provider, policy RetryPolicy, timeout time.Duration) *Invoker {
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	return &Invoker{
		provider: provider,
		policy:   policy,
		timeout:  timeout,
		sleep:    time.Sleep,
	}
}

// Invoke runs one generation call and returns the trimmed text content of
// the first choice. After the configured retries are exhausted the last
// error is returned verbatim.
func (inv *Invoker) Invoke(ctx context.Context, request *GenerationRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= inv.policy.MaxRetries; attempt++ {
		content, err := inv.attempt(ctx, request)
		if err == nil {
			return content, nil
		}

		if !IsRetryable(err) {
			logger.Error("LLM call failed with non-retryable error", err, logger.Fields{
				"provider": inv.provider.Name(),
				"model":    request.Model,
			})
			return "", err
		}

		lastErr = err
		if attempt == inv.policy.MaxRetries {
			break
		}

		delay := inv.backoffDelay(attempt, err)
		logger.Warn("LLM call failed, retrying", logger.Fields{
			"provider": inv.provider.Name(),
			"model":    request.Model,
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
		inv.sleep(delay)
	}

	logger.Error("LLM call failed after all retries", lastErr, logger.Fields{
		"provider": inv.provider.Name(),
		"model":    request.Model,
		"attempts": inv.policy.MaxRetries + 1,
	})
	return "", lastErr
}

// attempt runs a single call with the per-call timeout and validates the
// response shape.
func (inv *Invoker) attempt(ctx context.Context, request *GenerationRequest) (string, error) {
	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	resp, err := inv.provider.Generate(callCtx, request)
	if err != nil {
		return "", err
	}

	return firstContent(resp)
}

// backoffDelay computes the wait before the next attempt. A server-suggested
// rate-limit wait overrides the computed backoff for that attempt only; the
// exponent still advances with the attempt counter.
func (inv *Invoker) backoffDelay(attempt int, err error) time.Duration {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) && rateLimit.RetryAfter > 0 {
		return rateLimit.RetryAfter
	}
	scale := math.Pow(inv.policy.Multiplier, float64(attempt))
	return time.Duration(float64(inv.policy.BaseDelay) * scale)
}

// firstContent validates the response shape in order and extracts the first
// choice's trimmed content. Every failure mode maps to the same retryable
// invalid-shape class.
func firstContent(resp *GenerationResponse) (string, error) {
	if resp == nil {
		return "", &InvalidResponseError{Reason: "empty response"}
	}
	if len(resp.Choices) == 0 {
		return "", &InvalidResponseError{Reason: "no choices"}
	}
	choice := resp.Choices[0]
	if choice.Message == nil {
		return "", &InvalidResponseError{Reason: "choice has no message"}
	}
	if choice.Message.Content == nil {
		return "", &InvalidResponseError{Reason: "message content is null"}
	}
	content := strings.TrimSpace(*choice.Message.Content)
	if content == "" {
		return "", &InvalidResponseError{Reason: "message content is blank"}
	}
	return content, nil
}
