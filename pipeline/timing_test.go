package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func TestTimingRecordsElapsed(t *testing.T) {
	mw := NewTimingMiddleware()

	msg := message.New("alice", "sub", "c")
	result, err := mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		time.Sleep(5 * time.Millisecond)
		return message.Ok(""), nil
	})
	require.NoError(t, err)

	elapsed, ok := msg.Meta(MetaProcessingTimeMS)
	require.True(t, ok)
	assert.GreaterOrEqual(t, elapsed.(int64), int64(5))

	fromResult, ok := result.GetData(MetaProcessingTimeMS)
	require.True(t, ok)
	assert.Equal(t, elapsed, fromResult)
}

func TestTimingRecordsOnError(t *testing.T) {
	mw := NewTimingMiddleware()

	msg := message.New("alice", "sub", "c")
	_, err := mw.Process(context.Background(), msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	_, ok := msg.Meta(MetaProcessingTimeMS)
	assert.True(t, ok, "timing is recorded even when downstream fails")
}
