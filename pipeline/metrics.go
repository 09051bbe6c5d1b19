package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// maxTimingSamples bounds the in-memory timing buffer. Once full, the oldest
// sample is dropped for each new one.
const maxTimingSamples = 10000

// MetricsSnapshot is a point-in-time view of the collected metrics.
type MetricsSnapshot struct {
	TotalMessages       int64
	SuccessCount        int64
	FailureCount        int64
	SuccessRate         float64
	AverageProcessingMS float64
	MinProcessingTimeMS int64
	MaxProcessingTimeMS int64
}

// MetricsMiddleware counts outcomes and keeps a bounded buffer of processing
// times. Counters and the sample buffer update under one lock so a snapshot
// is always internally consistent: total == success + failure.
//
// An error from downstream still records a sample and counts as a failure
// before the error propagates.
type MetricsMiddleware struct {
	mu           sync.Mutex
	total        int64
	successCount int64
	failureCount int64
	samples      []int64 // ring buffer of processing times in ms
	next         int     // next write position once the buffer is full
	full         bool
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{samples: make([]int64, 0, 64)}
}

// Process implements the Middleware interface.
func (m *MetricsMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (result *message.Result, err error) {
	start := time.Now()
	defer func() {
		elapsedMS := time.Since(start).Milliseconds()
		success := err == nil && result != nil && result.Success
		m.record(elapsedMS, success)
	}()

	return next(ctx, msg)
}

func (m *MetricsMiddleware) record(elapsedMS int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if success {
		m.successCount++
	} else {
		m.failureCount++
	}

	if !m.full && len(m.samples) < maxTimingSamples {
		m.samples = append(m.samples, elapsedMS)
		if len(m.samples) == maxTimingSamples {
			m.full = true
		}
		return
	}
	m.full = true
	m.samples[m.next] = elapsedMS
	m.next = (m.next + 1) % maxTimingSamples
}

// Snapshot returns the current metrics. Rates and timing aggregates are zero
// when nothing has been recorded.
func (m *MetricsMiddleware) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalMessages: m.total,
		SuccessCount:  m.successCount,
		FailureCount:  m.failureCount,
	}
	if m.total > 0 {
		snap.SuccessRate = float64(m.successCount) / float64(m.total)
	}
	if len(m.samples) == 0 {
		return snap
	}

	var sum int64
	min := m.samples[0]
	max := m.samples[0]
	for _, s := range m.samples {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	snap.AverageProcessingMS = float64(sum) / float64(len(m.samples))
	snap.MinProcessingTimeMS = min
	snap.MaxProcessingTimeMS = max
	return snap
}

// Reset clears all counters and samples.
func (m *MetricsMiddleware) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = 0
	m.successCount = 0
	m.failureCount = 0
	m.samples = m.samples[:0]
	m.next = 0
	m.full = false
}

var _ Middleware = (*MetricsMiddleware)(nil)
