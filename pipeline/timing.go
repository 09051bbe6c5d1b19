package pipeline

import (
	"context"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// MetaProcessingTimeMS is the metadata key TimingMiddleware writes.
const MetaProcessingTimeMS = "ProcessingTimeMs"

// TimingMiddleware measures downstream processing time and records it into
// the message metadata and, when the call succeeds, the result data. The
// measurement is taken in a defer so it is recorded even when downstream
// returns an error.
type TimingMiddleware struct{}

// NewTimingMiddleware creates a new TimingMiddleware.
func NewTimingMiddleware() *TimingMiddleware {
	return &TimingMiddleware{}
}

// Process implements the Middleware interface.
func (m *TimingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (result *message.Result, err error) {
	start := time.Now()
	defer func() {
		elapsedMS := time.Since(start).Milliseconds()
		msg.SetMeta(MetaProcessingTimeMS, elapsedMS)
		if result != nil {
			result.SetData(MetaProcessingTimeMS, elapsedMS)
		}
	}()

	return next(ctx, msg)
}

var _ Middleware = (*TimingMiddleware)(nil)
