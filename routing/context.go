// Package routing provides the rule engine that selects a target agent for a
// message: routing rules with priorities, a read-only routing context with
// derived predicates, and deterministic evaluation with stable tie-breaking.
package routing

import (
	"strings"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// Context is a read-only projection of a message, constructed once per route
// call and never mutated. Rule predicates run against it.
type Context struct {
	MessageID      string
	SenderID       string
	Subject        string
	Content        string
	Category       string
	Priority       message.Priority
	ConversationID string
	Metadata       map[string]any
}

// NewContext builds a routing context from a message.
// The metadata snapshot is taken once so predicates see a stable view.
func NewContext(msg *message.Message) *Context {
	return &Context{
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		Subject:        msg.Subject,
		Content:        msg.Content,
		Category:       msg.Category,
		Priority:       msg.Priority,
		ConversationID: msg.ConversationID,
		Metadata:       msg.MetadataSnapshot(),
	}
}

// IsHighPriority reports whether the priority is High or Urgent.
func (c *Context) IsHighPriority() bool {
	return c.Priority >= message.PriorityHigh
}

// IsUrgent reports whether the priority is Urgent.
func (c *Context) IsUrgent() bool {
	return c.Priority == message.PriorityUrgent
}

// CategoryIs reports whether the category matches, case-insensitively.
func (c *Context) CategoryIs(category string) bool {
	return strings.EqualFold(c.Category, category)
}

// SubjectContains reports whether the subject contains the substring.
func (c *Context) SubjectContains(s string) bool {
	return strings.Contains(c.Subject, s)
}

// ContentContains reports whether the content contains the substring.
func (c *Context) ContentContains(s string) bool {
	return strings.Contains(c.Content, s)
}
