// Package agents defines the Agent capability protocol and the thread-safe
// agent registry.
//
// The core never implements concrete agents; it consumes them through the
// Agent interface. Registration is replace-on-duplicate and lookups return
// snapshot copies so callers can iterate without holding registry locks.
package agents

import (
	"context"
	"strings"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// =============================================================================
// AGENT STATUS
// =============================================================================

// Status represents the availability of an agent.
type Status string

const (
	// StatusAvailable indicates the agent is accepting messages.
	StatusAvailable Status = "available"
	// StatusBusy indicates the agent is at capacity.
	StatusBusy Status = "busy"
	// StatusOffline indicates the agent is not accepting messages.
	StatusOffline Status = "offline"
)

// =============================================================================
// CAPABILITIES
// =============================================================================

// Capabilities describes what an agent can do.
type Capabilities struct {
	// Skills is matched case-insensitively by HasSkill.
	Skills []string
	// SupportedCategories is matched case-sensitively by SupportsCategory.
	SupportedCategories []string
	// MaxConcurrentMessages bounds in-flight work for the agent.
	MaxConcurrentMessages int
}

// HasSkill reports whether the agent has the given skill.
// Matching is case-insensitive.
func (c Capabilities) HasSkill(skill string) bool {
	for _, s := range c.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// SupportsCategory reports whether the agent supports the given category.
// Matching is case-sensitive.
func (c Capabilities) SupportsCategory(category string) bool {
	for _, cat := range c.SupportedCategories {
		if cat == category {
			return true
		}
	}
	return false
}

// =============================================================================
// AGENT PROTOCOL
// =============================================================================

// Agent is the capability set the core consumes.
// Concrete agents (customer service, technical support, triage, ...) live
// outside the core and implement this interface.
type Agent interface {
	// ID returns the unique agent id.
	ID() string
	// Name returns the human-readable agent name.
	Name() string
	// Status returns the current availability.
	Status() Status
	// Capabilities returns the agent's capability set.
	Capabilities() Capabilities
	// CanHandle reports whether the agent accepts the message.
	CanHandle(msg *message.Message) bool
	// Handle processes the message. Domain failures are returned as a failed
	// Result; faults (including cancellation) are returned as an error.
	Handle(ctx context.Context, msg *message.Message) (*message.Result, error)
}

// HandlerFunc is the terminal handler shape the pipeline composes around.
type HandlerFunc func(ctx context.Context, msg *message.Message) (*message.Result, error)
