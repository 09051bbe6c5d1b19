package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func TestMetricsCountsOutcomes(t *testing.T) {
	mw := NewMetricsMiddleware()
	msg := message.New("s", "sub", "c")

	_, _ = mw.Process(context.Background(), msg, okTerminal)
	_, _ = mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		return message.Fail("nope"), nil
	})
	_, err := mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		return nil, errors.New("fault")
	})
	require.Error(t, err, "errors still propagate")

	snap := mw.Snapshot()
	assert.Equal(t, int64(3), snap.TotalMessages)
	assert.Equal(t, int64(1), snap.SuccessCount)
	assert.Equal(t, int64(2), snap.FailureCount, "errors count as failures")
	assert.InDelta(t, 1.0/3.0, snap.SuccessRate, 1e-9)
}

func TestMetricsEmptySnapshot(t *testing.T) {
	snap := NewMetricsMiddleware().Snapshot()
	assert.Zero(t, snap.TotalMessages)
	assert.Zero(t, snap.SuccessRate)
	assert.Zero(t, snap.AverageProcessingMS)
}

func TestMetricsInvariantUnderConcurrency(t *testing.T) {
	mw := NewMetricsMiddleware()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			msg := message.New("s", "sub", "c")
			if n%3 == 0 {
				_, _ = mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
					return message.Fail("nope"), nil
				})
			} else {
				_, _ = mw.Process(context.Background(), msg, okTerminal)
			}
		}(i)
	}
	wg.Wait()

	snap := mw.Snapshot()
	assert.Equal(t, int64(200), snap.TotalMessages)
	assert.Equal(t, snap.TotalMessages, snap.SuccessCount+snap.FailureCount,
		"total always equals success plus failure")
	assert.GreaterOrEqual(t, snap.MaxProcessingTimeMS, snap.MinProcessingTimeMS)
}

func TestMetricsReset(t *testing.T) {
	mw := NewMetricsMiddleware()
	_, _ = mw.Process(context.Background(), message.New("s", "sub", "c"), okTerminal)
	require.Equal(t, int64(1), mw.Snapshot().TotalMessages)

	mw.Reset()
	assert.Zero(t, mw.Snapshot().TotalMessages)
}
