package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// AnalyticsReport is a snapshot of traffic distribution across categories
// and receivers.
type AnalyticsReport struct {
	TotalMessages int64
	ByCategory    map[string]int64
	ByReceiver    map[string]int64
}

// AnalyticsMiddleware tracks how traffic distributes over categories and
// receiving agents. Empty category or receiver values are not counted.
type AnalyticsMiddleware struct {
	mu         sync.Mutex
	total      int64
	byCategory map[string]int64
	byReceiver map[string]int64
}

// NewAnalyticsMiddleware creates a new AnalyticsMiddleware.
func NewAnalyticsMiddleware() *AnalyticsMiddleware {
	return &AnalyticsMiddleware{
		byCategory: make(map[string]int64),
		byReceiver: make(map[string]int64),
	}
}

// Process implements the Middleware interface.
func (m *AnalyticsMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	m.mu.Lock()
	m.total++
	if msg.Category != "" {
		m.byCategory[msg.Category]++
	}
	if msg.ReceiverID != "" {
		m.byReceiver[msg.ReceiverID]++
	}
	m.mu.Unlock()

	return next(ctx, msg)
}

// GetReport returns a snapshot of the collected counts. The maps are copies;
// mutating them does not affect the middleware.
func (m *AnalyticsMiddleware) GetReport() AnalyticsReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := AnalyticsReport{
		TotalMessages: m.total,
		ByCategory:    make(map[string]int64, len(m.byCategory)),
		ByReceiver:    make(map[string]int64, len(m.byReceiver)),
	}
	for k, v := range m.byCategory {
		report.ByCategory[k] = v
	}
	for k, v := range m.byReceiver {
		report.ByReceiver[k] = v
	}
	return report
}

// GenerateReport renders a deterministic plain-text report. Categories and
// receivers are ordered by count descending, ties broken alphabetically.
func (m *AnalyticsMiddleware) GenerateReport() string {
	report := m.GetReport()

	var b strings.Builder
	b.WriteString("=== Message Analytics Report ===\n")
	fmt.Fprintf(&b, "Total Messages: %d\n", report.TotalMessages)

	b.WriteString("\nMessages by Category:\n")
	for _, entry := range sortedCounts(report.ByCategory) {
		pct := 0.0
		if report.TotalMessages > 0 {
			pct = float64(entry.count) / float64(report.TotalMessages) * 100
		}
		fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", entry.key, entry.count, pct)
	}

	b.WriteString("\nAgent Workload:\n")
	for _, entry := range sortedCounts(report.ByReceiver) {
		fmt.Fprintf(&b, "  %s: %d messages\n", entry.key, entry.count)
	}

	return b.String()
}

type countEntry struct {
	key   string
	count int64
}

func sortedCounts(counts map[string]int64) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, countEntry{key: k, count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

var _ Middleware = (*AnalyticsMiddleware)(nil)
