package openai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/resilience"
)

// classifyOpenAIError marks network faults and retryable statuses for the
// executor. Quota and rate-limit responses (402, 429) are not retried here:
// they stay wrong for longer than a backoff window, so they surface
// immediately and the caller degrades.
func classifyOpenAIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		case statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// wrapKind sorts a transport failure into the outage kind (timeouts, open
// circuit, exhausted quota, rate limits, 5xx) or the fatal kind (malformed
// requests, auth failures). Context cancellation passes through untouched.
func wrapKind(operation string, err error, unavailable, fatal error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(unavailable, operation, err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusPaymentRequired,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= 500:
			return domain.WrapError(unavailable, operation, err)
		default:
			return domain.WrapError(fatal, operation, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(unavailable, operation, err)
	}

	return domain.WrapError(fatal, operation, err)
}
