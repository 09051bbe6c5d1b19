package pipeline

import (
	"context"
	"strings"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// ValidationMiddleware rejects messages with missing required fields before
// they reach downstream middleware. SenderID, Subject, and Content must be
// non-empty and non-whitespace; a violation short-circuits with a failed
// Result.
type ValidationMiddleware struct{}

// NewValidationMiddleware creates a new ValidationMiddleware.
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{}
}

// Process implements the Middleware interface.
func (m *ValidationMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	if strings.TrimSpace(msg.SenderID) == "" {
		return message.Fail("Validation failed: sender id is required"), nil
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return message.Fail("Validation failed: subject is required"), nil
	}
	if strings.TrimSpace(msg.Content) == "" {
		return message.Fail("Validation failed: content is required"), nil
	}
	return next(ctx, msg)
}

// Ensure ValidationMiddleware implements Middleware.
var _ Middleware = (*ValidationMiddleware)(nil)
