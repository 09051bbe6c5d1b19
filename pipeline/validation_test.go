package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func TestValidationRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		msg     *message.Message
		wantErr string
	}{
		{"empty sender", message.New("", "sub", "c"), "Validation failed: sender id is required"},
		{"whitespace sender", message.New("   ", "sub", "c"), "Validation failed: sender id is required"},
		{"empty subject", message.New("alice", "", "c"), "Validation failed: subject is required"},
		{"whitespace subject", message.New("alice", " \t ", "c"), "Validation failed: subject is required"},
		{"empty content", message.New("alice", "sub", ""), "Validation failed: content is required"},
	}

	mw := NewValidationMiddleware()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nextCalled := false
			result, err := mw.Process(context.Background(), tc.msg, func(ctx context.Context, msg *message.Message) (*message.Result, error) {
				nextCalled = true
				return message.Ok(""), nil
			})
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Equal(t, tc.wantErr, result.Error)
			assert.False(t, nextCalled)
		})
	}
}

func TestValidationPassesValidMessage(t *testing.T) {
	mw := NewValidationMiddleware()
	result, err := mw.Process(context.Background(), message.New("alice", "sub", "c"), okTerminal)
	require.NoError(t, err)
	assert.True(t, result.Success)
}
