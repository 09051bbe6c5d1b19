package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// queuedMessage pairs a message with the channel its caller is blocked on.
type queuedMessage struct {
	ctx   context.Context
	msg   *message.Message
	next  Handler
	reply chan queuedOutcome
}

type queuedOutcome struct {
	result *message.Result
	err    error
}

// MessageQueueMiddleware buffers messages and processes them in batches.
//
// A batch is flushed when it reaches batchSize or when batchTimeout elapses
// since the last flush, whichever comes first. Every submitted message
// receives exactly one Result: callers block until their message's batch is
// processed. A panic while processing one message produces a failure result
// for that message only; the rest of the batch proceeds.
//
// Close drains the pending batch and stops the flush loop. It is idempotent.
type MessageQueueMiddleware struct {
	batchSize    int
	batchTimeout time.Duration
	logger       logging.Logger

	mu      sync.Mutex
	pending []queuedMessage

	flushCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMessageQueueMiddleware creates a batch queue. batchSize < 1 is raised
// to 1. The flush loop starts immediately.
func NewMessageQueueMiddleware(batchSize int, batchTimeout time.Duration, logger logging.Logger) *MessageQueueMiddleware {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &MessageQueueMiddleware{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		logger:       logger,
		flushCh:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	m.wg.Add(1)
	go m.flushLoop()
	return m
}

// Process implements the Middleware interface. It enqueues the message and
// blocks until its batch is flushed or the context is cancelled.
func (m *MessageQueueMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	reply := make(chan queuedOutcome, 1)

	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		return message.Fail("Batch processing error: queue is closed"), nil
	default:
	}
	m.pending = append(m.pending, queuedMessage{ctx: ctx, msg: msg, next: next, reply: reply})
	full := len(m.pending) >= m.batchSize
	m.mu.Unlock()

	if full {
		m.signalFlush()
	}

	select {
	case outcome := <-reply:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueLength reports the number of messages waiting for a flush.
func (m *MessageQueueMiddleware) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close flushes any pending messages and stops the background loop. Safe to
// call more than once.
func (m *MessageQueueMiddleware) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		m.processBatch(m.takePending())
	})
	return nil
}

func (m *MessageQueueMiddleware) signalFlush() {
	select {
	case m.flushCh <- struct{}{}:
	default:
	}
}

func (m *MessageQueueMiddleware) flushLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-m.flushCh:
		case <-ticker.C:
		}
		m.processBatch(m.takePending())
	}
}

func (m *MessageQueueMiddleware) takePending() []queuedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := m.pending
	m.pending = nil
	return batch
}

func (m *MessageQueueMiddleware) processBatch(batch []queuedMessage) {
	if len(batch) == 0 {
		return
	}
	m.logger.Debug("batch_flush", "size", len(batch))

	for _, item := range batch {
		item.reply <- m.processOne(item)
	}
}

func (m *MessageQueueMiddleware) processOne(item queuedMessage) (outcome queuedOutcome) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("batch_item_panic", "message_id", item.msg.ID, "panic", r)
			outcome = queuedOutcome{result: message.Fail("Batch processing error: handler panicked"), err: nil}
		}
	}()

	result, err := item.next(item.ctx, item.msg)
	return queuedOutcome{result: result, err: err}
}

var _ Middleware = (*MessageQueueMiddleware)(nil)
