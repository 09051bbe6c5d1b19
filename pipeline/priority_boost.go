package pipeline

import (
	"context"
	"strings"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// PriorityBoostMiddleware raises the priority of messages from designated
// senders to High. Messages already at High or Urgent are left alone.
// Sender matching is case-insensitive (ASCII folding).
type PriorityBoostMiddleware struct {
	vipSenders []string
}

// NewPriorityBoostMiddleware creates a new PriorityBoostMiddleware for the
// given sender ids.
func NewPriorityBoostMiddleware(vipSenders []string) *PriorityBoostMiddleware {
	senders := make([]string, len(vipSenders))
	copy(senders, vipSenders)
	return &PriorityBoostMiddleware{vipSenders: senders}
}

// Process implements the Middleware interface.
func (m *PriorityBoostMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	if m.isVIP(msg.SenderID) && msg.Priority < message.PriorityHigh {
		msg.Priority = message.PriorityHigh
	}
	return next(ctx, msg)
}

func (m *PriorityBoostMiddleware) isVIP(senderID string) bool {
	for _, vip := range m.vipSenders {
		if strings.EqualFold(vip, senderID) {
			return true
		}
	}
	return false
}

var _ Middleware = (*PriorityBoostMiddleware)(nil)
