package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func countingTerminal(calls *atomic.Int64) Handler {
	return func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		n := calls.Add(1)
		return message.Ok(fmt.Sprintf("computed %d", n)), nil
	}
}

func TestCacheHitWithinTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	mw := NewCachingMiddleware(5*time.Minute, 100, nil, clk)

	var calls atomic.Int64
	terminal := countingTerminal(&calls)

	msg := message.New("alice", "status", "what is the status", message.WithCategory("support"))

	first, err := mw.Process(context.Background(), msg, terminal)
	require.NoError(t, err)
	assert.Equal(t, "computed 1", first.Response)

	clk.Advance(time.Minute)
	second, err := mw.Process(context.Background(), msg, terminal)
	require.NoError(t, err)
	assert.Equal(t, "computed 1", second.Response, "second call is served from cache")
	assert.Equal(t, int64(1), calls.Load())

	clk.Advance(time.Minute)
	third, err := mw.Process(context.Background(), msg, terminal)
	require.NoError(t, err)
	assert.Equal(t, "computed 1", third.Response)

	// Past the TTL the entry expires and the handler runs again.
	clk.Advance(6 * time.Minute)
	fourth, err := mw.Process(context.Background(), msg, terminal)
	require.NoError(t, err)
	assert.Equal(t, "computed 2", fourth.Response)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheKeyCoversIdentityFields(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(time.Hour, 100, nil, clk)

	var calls atomic.Int64
	terminal := countingTerminal(&calls)

	a := message.New("alice", "sub", "c", message.WithCategory("x"))
	b := message.New("bob", "sub", "c", message.WithCategory("x"))

	_, err := mw.Process(context.Background(), a, terminal)
	require.NoError(t, err)
	_, err = mw.Process(context.Background(), b, terminal)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load(), "different senders never share a cache entry")
	assert.Equal(t, 2, mw.Count())
}

func TestFingerprintIsStable(t *testing.T) {
	a := message.New("alice", "sub", "c", message.WithCategory("x"))
	b := message.New("alice", "sub", "c", message.WithCategory("x"))
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	c := message.New("alice", "sub", "different", message.WithCategory("x"))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestCacheLRUEviction(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(time.Hour, 2, nil, clk)

	var calls atomic.Int64
	terminal := countingTerminal(&calls)

	msgA := message.New("a", "sub", "c")
	msgB := message.New("b", "sub", "c")
	msgC := message.New("c", "sub", "c")

	_, _ = mw.Process(context.Background(), msgA, terminal)
	_, _ = mw.Process(context.Background(), msgB, terminal)

	// Touch A so B becomes least recently used.
	_, _ = mw.Process(context.Background(), msgA, terminal)
	assert.Equal(t, int64(2), calls.Load())

	_, _ = mw.Process(context.Background(), msgC, terminal)
	assert.Equal(t, 2, mw.Count(), "bound holds after eviction")

	// A survived, B was evicted.
	_, _ = mw.Process(context.Background(), msgA, terminal)
	assert.Equal(t, int64(3), calls.Load())
	_, _ = mw.Process(context.Background(), msgB, terminal)
	assert.Equal(t, int64(4), calls.Load(), "evicted entry recomputes")
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(time.Hour, 10, nil, clk)

	msg := message.New("alice", "sub", "c")
	_, err := mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		return nil, fmt.Errorf("transient fault")
	})
	require.Error(t, err)
	assert.Equal(t, 0, mw.Count())
}

func TestCleanupExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(10*time.Minute, 100, nil, clk)

	assert.Equal(t, 0, mw.CleanupExpired(), "safe on an empty cache")

	var calls atomic.Int64
	terminal := countingTerminal(&calls)
	_, _ = mw.Process(context.Background(), message.New("a", "sub", "c"), terminal)
	clk.Advance(5 * time.Minute)
	_, _ = mw.Process(context.Background(), message.New("b", "sub", "c"), terminal)

	clk.Advance(5 * time.Minute)
	removed := mw.CleanupExpired()
	assert.Equal(t, 1, removed, "only the first entry crossed the TTL")
	assert.Equal(t, 1, mw.Count())
}

func TestCacheClear(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(time.Hour, 100, nil, clk)

	var calls atomic.Int64
	_, _ = mw.Process(context.Background(), message.New("a", "sub", "c"), countingTerminal(&calls))
	require.Equal(t, 1, mw.Count())

	mw.Clear()
	assert.Equal(t, 0, mw.Count())
}

func TestCacheConcurrentAccess(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	mw := NewCachingMiddleware(time.Hour, 50, nil, clk)

	var calls atomic.Int64
	terminal := countingTerminal(&calls)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			msg := message.New(fmt.Sprintf("sender-%d", n%10), "sub", "c")
			_, err := mw.Process(context.Background(), msg, terminal)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, mw.Count(), 50)
	assert.GreaterOrEqual(t, calls.Load(), int64(10), "at least one computation per distinct key")
}
