package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// Metadata keys written by TransformationMiddleware.
const (
	MetaContainsEmail       = "ContainsEmail"
	MetaEmailCount          = "EmailCount"
	MetaContainsPhone       = "ContainsPhone"
	MetaPhoneCount          = "PhoneCount"
	MetaDetectedLanguage    = "DetectedLanguage"
	MetaProcessingTimestamp = "ProcessingTimestamp"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s().]{6,}\d`)
)

// Dangerous content fragments removed by sanitization. Matching is
// exact-case only; "<SCRIPT>" passes through. This mirrors the documented
// source behavior and is asserted by tests.
var sanitizedFragments = []string{"<script>", "</script>", "javascript:", "onerror="}

// TransformationMiddleware analyzes and normalizes message content: it
// detects emails and phone numbers, guesses the content language, stamps an
// ISO-8601 processing timestamp, and strips a fixed set of dangerous
// fragments from the content.
type TransformationMiddleware struct {
	clk clock.Clock
}

// NewTransformationMiddleware creates a new TransformationMiddleware.
// A nil clock falls back to the system clock.
func NewTransformationMiddleware(clk clock.Clock) *TransformationMiddleware {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &TransformationMiddleware{clk: clk}
}

// Process implements the Middleware interface.
func (m *TransformationMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	emails := emailPattern.FindAllString(msg.Content, -1)
	msg.SetMeta(MetaContainsEmail, len(emails) > 0)
	msg.SetMeta(MetaEmailCount, len(emails))

	phones := phonePattern.FindAllString(msg.Content, -1)
	msg.SetMeta(MetaContainsPhone, len(phones) > 0)
	msg.SetMeta(MetaPhoneCount, len(phones))

	msg.SetMeta(MetaDetectedLanguage, detectLanguage(msg.Content))
	msg.SetMeta(MetaProcessingTimestamp, m.clk.NowUTC().Format(time.RFC3339))

	for _, fragment := range sanitizedFragments {
		msg.Content = strings.ReplaceAll(msg.Content, fragment, "")
	}

	return next(ctx, msg)
}

// detectLanguage is a stopword heuristic over a handful of languages.
// Unknown content defaults to English.
func detectLanguage(content string) string {
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return "en"
	}

	markers := map[string][]string{
		"es": {"el", "la", "los", "las", "es", "por", "para", "con", "una", "que"},
		"fr": {"le", "les", "des", "est", "pour", "avec", "une", "dans", "sur"},
		"de": {"der", "die", "das", "und", "ist", "nicht", "ein", "eine", "mit"},
	}

	best := "en"
	bestHits := 0
	for lang, stopwords := range markers {
		hits := 0
		for _, w := range words {
			for _, sw := range stopwords {
				if w == sw {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			best = lang
			bestHits = hits
		}
	}

	// Require at least two marker hits before overriding the default.
	if bestHits < 2 {
		return "en"
	}
	return best
}

var _ Middleware = (*TransformationMiddleware)(nil)
