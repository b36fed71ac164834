package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns one scripted result per call, in order.
type scriptedProvider struct {
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	resp *GenerationResponse
	err  error
}

func (p *scriptedProvider) Generate(_ context.Context, _ *GenerationRequest) (*GenerationResponse, error) {
	if p.calls >= len(p.results) {
		return nil, fmt.Errorf("unexpected call %d", p.calls)
	}
	result := p.results[p.calls]
	p.calls++
	return result.resp, result.err
}

func (p *scriptedProvider) Name() string { return "scripted" }

func textResponse(content string) *GenerationResponse {
	return &GenerationResponse{
		Choices: []Choice{{Message: &ChoiceMessage{Content: &content}}},
	}
}

// newTestInvoker builds an invoker whose sleeps are recorded, not slept.
func newTestInvoker(provider Provider, policy RetryPolicy) (*Invoker, *[]time.Duration) {
	inv := NewInvoker(provider, policy, 0)
	var delays []time.Duration
	inv.sleep = func(d time.Duration) { delays = append(delays, d) }
	return inv, &delays
}

func TestInvoke_SuccessFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{resp: textResponse("  hello  ")},
	}}
	inv, delays := newTestInvoker(provider, DefaultRetryPolicy())

	content, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, *delays)
}

func TestInvoke_RetriesRecoverableErrors(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: &RateLimitError{Err: fmt.Errorf("429")}},
		{err: &TimeoutError{Err: fmt.Errorf("timeout")}},
		{resp: textResponse("ok")},
	}}
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, Multiplier: 2.0}
	inv, delays := newTestInvoker(provider, policy)

	content, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, 3, provider.calls)

	// Exponential backoff: 1s then 2s
	require.Len(t, *delays, 2)
	assert.Equal(t, time.Second, (*delays)[0])
	assert.Equal(t, 2*time.Second, (*delays)[1])
}

func TestInvoke_RetryAfterOverridesOneDelay(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: &RateLimitError{RetryAfter: 7 * time.Second, Err: fmt.Errorf("429")}},
		{err: &ConnectionError{Err: fmt.Errorf("connection reset")}},
		{resp: textResponse("ok")},
	}}
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, Multiplier: 2.0}
	inv, delays := newTestInvoker(provider, policy)

	_, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)

	// The server hint overrides attempt 0 only; attempt 1 resumes the
	// schedule with the advanced exponent.
	require.Len(t, *delays, 2)
	assert.Equal(t, 7*time.Second, (*delays)[0])
	assert.Equal(t, 2*time.Second, (*delays)[1])
}

func TestInvoke_FatalErrorPropagatesImmediately(t *testing.T) {
	fatal := fmt.Errorf("invalid api key")
	provider := &scriptedProvider{results: []scriptedResult{
		{err: fatal},
	}}
	inv, delays := newTestInvoker(provider, DefaultRetryPolicy())

	_, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, *delays)
}

func TestInvoke_ExhaustionReturnsLastError(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: &TimeoutError{Err: fmt.Errorf("t1")}},
		{err: &TimeoutError{Err: fmt.Errorf("t2")}},
		{err: &ConnectionError{Err: fmt.Errorf("final")}},
	}}
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 2.0}
	inv, _ := newTestInvoker(provider, policy)

	_, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.Error(t, err)

	// MaxRetries+1 attempts, last error verbatim
	assert.Equal(t, 3, provider.calls)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "final")
}

func TestInvoke_InvalidShapeIsRetryable(t *testing.T) {
	blank := "   "
	provider := &scriptedProvider{results: []scriptedResult{
		{resp: &GenerationResponse{}},                                          // no choices
		{resp: &GenerationResponse{Choices: []Choice{{}}}},                     // no message
		{resp: &GenerationResponse{Choices: []Choice{{Message: &ChoiceMessage{}}}}}, // null content
		{resp: &GenerationResponse{Choices: []Choice{{Message: &ChoiceMessage{Content: &blank}}}}}, // blank content
	}}
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 1.0}
	inv, _ := newTestInvoker(provider, policy)

	_, err := inv.Invoke(context.Background(), &GenerationRequest{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Equal(t, 4, provider.calls)

	var invalidErr *InvalidResponseError
	require.ErrorAs(t, err, &invalidErr)
}
