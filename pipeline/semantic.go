package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// MetaDetectedIntents is the metadata key SemanticRoutingMiddleware writes:
// a comma-separated list of detected intents.
const MetaDetectedIntents = "DetectedIntents"

// defaultIntentKeywords maps intents to trigger keywords. Matching is
// case-insensitive substring search over subject and content.
var defaultIntentKeywords = map[string][]string{
	"complaint": {"complaint", "unacceptable", "disappointed", "terrible", "awful"},
	"question":  {"how do i", "how to", "what is", "can you", "?"},
	"refund":    {"refund", "money back", "chargeback", "reimburse"},
	"technical": {"error", "crash", "bug", "not working", "broken", "exception"},
	"urgent":    {"urgent", "asap", "immediately", "right away", "emergency"},
}

// SemanticRoutingMiddleware performs keyword-based intent detection and
// records the detected intents for downstream routing rules to inspect.
// Intents are sorted alphabetically so the metadata value is deterministic.
type SemanticRoutingMiddleware struct {
	intents map[string][]string
}

// NewSemanticRoutingMiddleware creates a middleware with the default intent
// keyword table.
func NewSemanticRoutingMiddleware() *SemanticRoutingMiddleware {
	return &SemanticRoutingMiddleware{intents: defaultIntentKeywords}
}

// NewSemanticRoutingMiddlewareWithIntents creates a middleware with a custom
// intent keyword table.
func NewSemanticRoutingMiddlewareWithIntents(intents map[string][]string) *SemanticRoutingMiddleware {
	return &SemanticRoutingMiddleware{intents: intents}
}

// Process implements the Middleware interface.
func (m *SemanticRoutingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	text := strings.ToLower(msg.Subject + " " + msg.Content)

	var detected []string
	for intent, keywords := range m.intents {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				detected = append(detected, intent)
				break
			}
		}
	}
	sort.Strings(detected)

	if len(detected) > 0 {
		msg.SetMeta(MetaDetectedIntents, strings.Join(detected, ","))
	}

	return next(ctx, msg)
}

var _ Middleware = (*SemanticRoutingMiddleware)(nil)
