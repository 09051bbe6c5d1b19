package pipeline

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// Metadata keys written by EnrichmentMiddleware.
const (
	// MetaReceivedAt is the UTC timestamp of first pipeline entry.
	MetaReceivedAt = "ReceivedAt"
	// MetaProcessedBy is the machine name, overwritten on every call.
	MetaProcessedBy = "ProcessedBy"
)

// EnrichmentMiddleware stamps provenance metadata onto every message:
// ReceivedAt is set once (never overwritten), ProcessedBy is refreshed on
// every call, and a conversation id is generated only when the current one
// is the empty string. A whitespace-only conversation id is deliberately
// preserved: the check is null-or-empty, not whitespace.
type EnrichmentMiddleware struct {
	clk         clock.Clock
	machineName string
}

// NewEnrichmentMiddleware creates a new EnrichmentMiddleware.
// A nil clock falls back to the system clock.
func NewEnrichmentMiddleware(clk clock.Clock) *EnrichmentMiddleware {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &EnrichmentMiddleware{clk: clk, machineName: host}
}

// MachineName returns the name stamped into ProcessedBy.
func (m *EnrichmentMiddleware) MachineName() string {
	return m.machineName
}

// Process implements the Middleware interface.
func (m *EnrichmentMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	msg.SetMetaIfAbsent(MetaReceivedAt, m.clk.NowUTC())
	msg.SetMeta(MetaProcessedBy, m.machineName)

	if msg.ConversationID == "" {
		msg.ConversationID = uuid.NewString()
	}

	return next(ctx, msg)
}

var _ Middleware = (*EnrichmentMiddleware)(nil)
