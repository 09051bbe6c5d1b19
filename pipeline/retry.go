package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/observability"
)

// RetryMiddleware retries the downstream handler when it returns an error or
// a failure result.
//
// After the final attempt a Go error is converted into a failure result so
// callers see a terminal outcome rather than a fault; an exhausted run whose
// last attempt produced a failure result returns that result unchanged.
//
// Backoff is linear: attempt N sleeps baseDelay * N before the next try. No
// sleep happens after the last attempt. Context cancellation during a sleep
// aborts immediately with ctx.Err().
type RetryMiddleware struct {
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryMiddleware creates a retry middleware. maxAttempts < 1 is raised
// to 1 (a single attempt, no retries).
func NewRetryMiddleware(maxAttempts int, baseDelay time.Duration) *RetryMiddleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryMiddleware{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Process implements the Middleware interface.
func (m *RetryMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	var (
		lastErr    error
		lastResult *message.Result
	)

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		result, err := next(ctx, msg)
		if err == nil && result != nil && result.Success {
			observability.RecordRetryAttempt("success")
			return result, nil
		}

		// Never retry a cancelled context.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		lastResult = result

		if attempt == m.maxAttempts {
			observability.RecordRetryAttempt("exhausted")
			break
		}
		observability.RecordRetryAttempt("retry")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.baseDelay * time.Duration(attempt)):
		}
	}

	if lastErr != nil {
		return message.Fail(fmt.Sprintf("Failed after %d attempts: %s", m.maxAttempts, lastErr.Error())), nil
	}
	return lastResult, nil
}

var _ Middleware = (*RetryMiddleware)(nil)
