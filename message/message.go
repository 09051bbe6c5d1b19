// Package message defines the core records that every other component of the
// routing engine references: Message, Result, and Priority.
//
// A Message is an immutable-shell/mutable-bag record: identity fields are set
// at creation, while metadata and the typed value context are mutated by
// middleware along the pipeline. A single message is processed by at most one
// pipeline invocation at a time; the metadata bag is still lock-guarded so
// asynchronous middleware (batch queues, health probes) can read it safely.
package message

import (
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// PRIORITY
// =============================================================================

// Priority is the message priority. Total order: Low < Normal < High < Urgent.
type Priority int

const (
	// PriorityLow is for background traffic.
	PriorityLow Priority = iota
	// PriorityNormal is the default.
	PriorityNormal
	// PriorityHigh is for user-facing traffic that should jump queues.
	PriorityHigh
	// PriorityUrgent is the highest priority.
	PriorityUrgent
)

// String returns the canonical name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return "Normal"
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a routable unit of work.
//
// ReceiverID may be empty at creation; the Router assigns it after rule
// evaluation, before the terminal handler runs.
type Message struct {
	ID             string
	SenderID       string
	ReceiverID     string
	Subject        string
	Content        string
	Category       string
	Priority       Priority
	ConversationID string

	metadata map[string]any
	values   map[string]any
	mu       sync.RWMutex
}

// Option configures a Message at creation.
type Option func(*Message)

// WithCategory sets the routing category.
func WithCategory(category string) Option {
	return func(m *Message) { m.Category = category }
}

// WithPriority sets the priority.
func WithPriority(p Priority) Option {
	return func(m *Message) { m.Priority = p }
}

// WithConversationID sets the correlation id.
func WithConversationID(id string) Option {
	return func(m *Message) { m.ConversationID = id }
}

// WithReceiver pre-assigns the receiver id.
func WithReceiver(receiverID string) Option {
	return func(m *Message) { m.ReceiverID = receiverID }
}

// WithMetadata seeds a metadata key.
func WithMetadata(key string, value any) Option {
	return func(m *Message) { m.metadata[key] = value }
}

// New creates a Message with a generated unique id and Normal priority.
func New(senderID, subject, content string, opts ...Option) *Message {
	m := &Message{
		ID:       uuid.NewString(),
		SenderID: senderID,
		Subject:  subject,
		Content:  content,
		Priority: PriorityNormal,
		metadata: make(map[string]any),
		values:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// =============================================================================
// METADATA BAG
// =============================================================================

// Meta returns the metadata value for key. Keys are case-sensitive.
func (m *Message) Meta(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.metadata[key]
	return v, ok
}

// SetMeta stores a metadata value, replacing any prior value.
func (m *Message) SetMeta(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
}

// SetMetaIfAbsent stores value only when key is not already present.
// Returns true if the value was stored.
func (m *Message) SetMetaIfAbsent(key string, value any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.metadata[key]; exists {
		return false
	}
	m.metadata[key] = value
	return true
}

// MetadataSnapshot returns a shallow copy of the metadata bag.
func (m *Message) MetadataSnapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(map[string]any, len(m.metadata))
	for k, v := range m.metadata {
		snapshot[k] = v
	}
	return snapshot
}

// =============================================================================
// TYPED VALUE CONTEXT
// =============================================================================

// SetValue stores a typed scratch value attached to the message.
// Feature flag results live here under "Feature_<name>" keys.
func (m *Message) SetValue(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Value returns the typed scratch value for key.
func (m *Message) Value(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// BoolValue returns the scratch value for key as a bool.
// Missing or non-bool values return false.
func (m *Message) BoolValue(key string) bool {
	v, ok := m.Value(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Clone returns an independent copy of the message with the same id.
// Broadcast hands each recipient its own clone so receiver assignment and
// metadata mutation never race across recipients.
func (m *Message) Clone() *Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clone := &Message{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Subject:        m.Subject,
		Content:        m.Content,
		Category:       m.Category,
		Priority:       m.Priority,
		ConversationID: m.ConversationID,
		metadata:       make(map[string]any, len(m.metadata)),
		values:         make(map[string]any, len(m.values)),
	}
	for k, v := range m.metadata {
		clone.metadata[k] = v
	}
	for k, v := range m.values {
		clone.values[k] = v
	}
	return clone
}
