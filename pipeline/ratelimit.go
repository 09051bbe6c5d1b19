package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/observability"
)

// RateLimitMiddleware enforces a per-sender sliding-window rate limit.
//
// Each sender gets at most maxMessages sends within any `window` interval.
// Over-limit messages are rejected with a failure result without reaching
// downstream. A message that is admitted consumes quota even when the
// downstream handler later fails: admission is decided before processing.
//
// The check-and-record step runs under a single lock so the limit is exact
// under concurrent senders.
type RateLimitMiddleware struct {
	maxMessages int
	window      time.Duration
	clk         clock.Clock

	mu      sync.Mutex
	history map[string][]time.Time // senderId -> admission timestamps, oldest first
}

// NewRateLimitMiddleware creates a rate limiter allowing maxMessages per
// sender within the sliding window. A nil clock falls back to the system
// clock. maxMessages < 1 is raised to 1.
func NewRateLimitMiddleware(maxMessages int, window time.Duration, clk clock.Clock) *RateLimitMiddleware {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	if maxMessages < 1 {
		maxMessages = 1
	}
	return &RateLimitMiddleware{
		maxMessages: maxMessages,
		window:      window,
		clk:         clk,
		history:     make(map[string][]time.Time),
	}
}

// Process implements the Middleware interface.
func (m *RateLimitMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	if !m.admit(msg.SenderID) {
		observability.RecordRateLimitRejection()
		return message.Fail(fmt.Sprintf(
			"Rate limit exceeded: %s has sent too many messages. Max %d per %s.",
			msg.SenderID, m.maxMessages, m.window)), nil
	}
	return next(ctx, msg)
}

// admit checks the sender's window and records the admission atomically.
func (m *RateLimitMiddleware) admit(senderID string) bool {
	now := m.clk.Now()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	timestamps := m.history[senderID]

	// Drop entries that have slid out of the window. Timestamps are
	// appended in order, so the first in-window entry bounds the rest.
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= m.maxMessages {
		m.history[senderID] = kept
		return false
	}

	m.history[senderID] = append(kept, now)
	return true
}

// RemainingQuota reports how many messages the sender may still send in the
// current window. Useful for tests and diagnostics.
func (m *RateLimitMiddleware) RemainingQuota(senderID string) int {
	cutoff := m.clk.Now().Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	inWindow := 0
	for _, ts := range m.history[senderID] {
		if ts.After(cutoff) {
			inWindow++
		}
	}
	if inWindow >= m.maxMessages {
		return 0
	}
	return m.maxMessages - inWindow
}

var _ Middleware = (*RateLimitMiddleware)(nil)
