package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// RateLimitError is returned when the provider rejects a call with a rate
// limit. RetryAfter carries the server-suggested wait, zero when absent.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TimeoutError is returned when a call exceeds its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("request timed out: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ConnectionError is returned when the provider is unreachable or answers
// with a transient server failure.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection failed: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidResponseError is returned when a call succeeds at the transport
// level but the response shape is unusable.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string { return "invalid response shape: " + e.Reason }

// IsRetryable reports whether the error belongs to one of the recoverable
// categories: rate limit, timeout, connection failure, invalid response
// shape. Anything else (auth, bad request) is a configuration-level problem
// and must propagate.
func IsRetryable(err error) bool {
	var rateLimit *RateLimitError
	var timeout *TimeoutError
	var connection *ConnectionError
	var invalid *InvalidResponseError

	return errors.As(err, &rateLimit) ||
		errors.As(err, &timeout) ||
		errors.As(err, &connection) ||
		errors.As(err, &invalid)
}

// classifyError maps transport and SDK errors onto the retryable taxonomy.
// Errors that match nothing are returned unchanged and treated as fatal.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &RateLimitError{RetryAfter: retryAfterHint(apiErr), Err: err}
		case apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout:
			return &TimeoutError{Err: err}
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return &ConnectionError{Err: err}
		default:
			// 400/401/403 and friends: configuration problems, never retried
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &TimeoutError{Err: err}
		}
		return &ConnectionError{Err: err}
	}

	// Some SDKs surface transport problems as plain errors
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "resource_exhausted"):
		return &RateLimitError{Err: err}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return &TimeoutError{Err: err}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "server_error") || strings.Contains(msg, "internal server error"):
		return &ConnectionError{Err: err}
	}

	return err
}

// retryAfterHint extracts the server-suggested wait from a 429 response.
func retryAfterHint(apiErr *openai.Error) time.Duration {
	if apiErr.Response == nil {
		return 0
	}
	header := apiErr.Response.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
