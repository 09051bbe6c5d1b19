package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func TestRateLimitAllowsUpToMax(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewRateLimitMiddleware(3, time.Minute, clk)

	for i := 0; i < 3; i++ {
		result, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
		require.NoError(t, err)
		assert.True(t, result.Success, "message %d is within quota", i+1)
	}

	result, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Rate limit exceeded")
	assert.Contains(t, result.Error, "alice")
}

func TestRateLimitWindowSlides(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewRateLimitMiddleware(2, time.Minute, clk)

	_, _ = mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	clk.Advance(40 * time.Second)
	_, _ = mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)

	rejected, _ := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	assert.False(t, rejected.Success)

	// The first admission slides out of the window.
	clk.Advance(30 * time.Second)
	allowed, _ := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	assert.True(t, allowed.Success)
}

func TestRateLimitIsPerSender(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewRateLimitMiddleware(1, time.Minute, clk)

	a, _ := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	b, _ := mw.Process(context.Background(), message.New("bob", "sub", "c"), okTerminal)
	assert.True(t, a.Success)
	assert.True(t, b.Success)

	a2, _ := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	assert.False(t, a2.Success)
}

func TestRateLimitFailedHandlerStillConsumesQuota(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewRateLimitMiddleware(1, time.Minute, clk)

	_, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		return nil, errors.New("handler fault")
	})
	require.Error(t, err)

	result, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	require.NoError(t, err)
	assert.False(t, result.Success, "admission is decided before processing")
}

func TestRateLimitExactUnderConcurrency(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	const limit = 10
	mw := NewRateLimitMiddleware(limit, time.Minute, clk)

	var admitted, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
			assert.NoError(t, err)
			if result.Success {
				admitted.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted.Load(), "exactly the limit is admitted")
	assert.Equal(t, int64(40), rejected.Load())
}

func TestRemainingQuota(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewRateLimitMiddleware(2, time.Minute, clk)

	assert.Equal(t, 2, mw.RemainingQuota("alice"))
	_, _ = mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	assert.Equal(t, 1, mw.RemainingQuota("alice"))
	_, _ = mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	assert.Equal(t, 0, mw.RemainingQuota("alice"))
}
