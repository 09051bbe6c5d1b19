package pipeline

import (
	"container/list"
	"context"
	"encoding/hex"
	"hash/fnv"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/observability"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/store"
)

// CacheEntry is one cached result keyed by message fingerprint.
type CacheEntry struct {
	Key            string
	Value          *message.Result
	InsertedAt     time.Time
	LastAccessedAt time.Time

	// elem is the entry's node in the LRU list.
	elem *list.Element
}

// CachingMiddleware short-circuits repeated messages with a cached result.
//
// Entries are keyed by a stable fingerprint over (senderId, category,
// subject, content) and bounded by an LRU policy: when the entry count
// exceeds maxEntries, least-recently-accessed entries are evicted until the
// count is back at the bound. TTL checks use the injected clock.
//
// Concurrency: a single lock protects the LRU ordering. A key's computation
// may run twice under race (no singleflight); the stored entry reflects the
// last completed write.
type CachingMiddleware struct {
	entries    store.Store
	lru        *list.List // front = most recently accessed
	ttl        time.Duration
	maxEntries int
	clk        clock.Clock

	// mu protects the LRU ordering. It is never held across the downstream
	// call: released before next runs, reacquired to store the result.
	mu sync.Mutex
}

// NewCachingMiddleware creates a caching middleware with the given TTL and
// entry bound. A nil store falls back to an in-memory store; a nil clock to
// the system clock. maxEntries < 1 is raised to 1.
func NewCachingMiddleware(ttl time.Duration, maxEntries int, st store.Store, clk clock.Clock) *CachingMiddleware {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachingMiddleware{
		entries:    st,
		lru:        list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		clk:        clk,
	}
}

// Fingerprint computes the stable cache key for a message.
func Fingerprint(msg *message.Message) string {
	h := fnv.New64a()
	for _, field := range []string{msg.SenderID, msg.Category, msg.Subject, msg.Content} {
		_, _ = h.Write([]byte(field))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Process implements the Middleware interface.
func (m *CachingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	key := Fingerprint(msg)
	now := m.clk.Now()

	m.mu.Lock()
	if v, ok := m.entries.Get(key); ok {
		entry := v.(*CacheEntry)
		if now.Sub(entry.InsertedAt) < m.ttl {
			entry.LastAccessedAt = now
			m.lru.MoveToFront(entry.elem)
			result := entry.Value
			m.mu.Unlock()
			observability.RecordCacheEvent("hit")
			return result, nil
		}
		// Expired: drop before recomputing.
		m.removeLocked(entry)
		observability.RecordCacheEvent("expired")
	}
	m.mu.Unlock()

	observability.RecordCacheEvent("miss")
	result, err := next(ctx, msg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.storeLocked(key, result, m.clk.Now())
	m.mu.Unlock()
	return result, nil
}

// Count returns the number of cached entries.
func (m *CachingMiddleware) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Len()
}

// Clear removes all cached entries.
func (m *CachingMiddleware) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Clear()
	m.lru.Init()
}

// CleanupExpired removes all entries older than the TTL in a single pass.
// Safe on an empty cache. Returns the number of removed entries.
func (m *CachingMiddleware) CleanupExpired() int {
	now := m.clk.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []*CacheEntry
	m.entries.Range(func(_ string, v any) bool {
		entry := v.(*CacheEntry)
		if now.Sub(entry.InsertedAt) >= m.ttl {
			expired = append(expired, entry)
		}
		return true
	})
	for _, entry := range expired {
		m.removeLocked(entry)
	}
	return len(expired)
}

// storeLocked inserts or replaces an entry and enforces the LRU bound.
func (m *CachingMiddleware) storeLocked(key string, result *message.Result, now time.Time) {
	if v, ok := m.entries.Get(key); ok {
		// Replace in place; a concurrent computation may have stored first.
		entry := v.(*CacheEntry)
		entry.Value = result
		entry.InsertedAt = now
		entry.LastAccessedAt = now
		m.lru.MoveToFront(entry.elem)
		return
	}

	entry := &CacheEntry{
		Key:            key,
		Value:          result,
		InsertedAt:     now,
		LastAccessedAt: now,
	}
	entry.elem = m.lru.PushFront(entry)
	m.entries.Set(key, entry)

	for m.entries.Len() > m.maxEntries {
		oldest := m.lru.Back()
		if oldest == nil {
			break
		}
		m.removeLocked(oldest.Value.(*CacheEntry))
		observability.RecordCacheEvent("eviction")
	}
}

func (m *CachingMiddleware) removeLocked(entry *CacheEntry) {
	m.entries.Delete(entry.Key)
	m.lru.Remove(entry.elem)
}

var _ Middleware = (*CachingMiddleware)(nil)
