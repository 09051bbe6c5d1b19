package pipeline

import (
	"context"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// LoggingMiddleware emits structured log events before and after the
// downstream handler runs. It never alters the result.
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LoggingMiddleware{logger: logger}
}

// Process implements the Middleware interface.
func (m *LoggingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	start := time.Now()
	m.logger.Info("message_processing",
		"message_id", msg.ID,
		"sender_id", msg.SenderID,
		"receiver_id", msg.ReceiverID,
		"category", msg.Category,
		"priority", msg.Priority.String(),
	)

	result, err := next(ctx, msg)

	durationMS := time.Since(start).Milliseconds()
	switch {
	case err != nil:
		m.logger.Error("message_failed",
			"message_id", msg.ID,
			"error", err.Error(),
			"duration_ms", durationMS,
		)
	case result != nil && !result.Success:
		m.logger.Warn("message_rejected",
			"message_id", msg.ID,
			"reason", result.Error,
			"duration_ms", durationMS,
		)
	default:
		m.logger.Info("message_processed",
			"message_id", msg.ID,
			"duration_ms", durationMS,
		)
	}
	return result, err
}

var _ Middleware = (*LoggingMiddleware)(nil)
