package routing

import "fmt"

// NoAgentError is returned when no routing rule matched and no default agent
// is configured.
type NoAgentError struct {
	MessageID string
	Category  string
}

func (e *NoAgentError) Error() string {
	return fmt.Sprintf("No agent available: no routing rule matched message %s (category %q)", e.MessageID, e.Category)
}

// NewNoAgentError creates a new NoAgentError.
func NewNoAgentError(messageID, category string) *NoAgentError {
	return &NoAgentError{MessageID: messageID, Category: category}
}

// AgentNotRegisteredError is returned when a rule selected an agent id that
// is not present in the registry.
type AgentNotRegisteredError struct {
	AgentID string
	RuleID  string
}

func (e *AgentNotRegisteredError) Error() string {
	return fmt.Sprintf("agent %s selected by rule %s is not registered", e.AgentID, e.RuleID)
}

// NewAgentNotRegisteredError creates a new AgentNotRegisteredError.
func NewAgentNotRegisteredError(agentID, ruleID string) *AgentNotRegisteredError {
	return &AgentNotRegisteredError{AgentID: agentID, RuleID: ruleID}
}
