package agents

import (
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
)

// Registry manages agent registration, discovery, and capability lookup.
// Thread-safe; read-heavy operations return snapshot copies.
//
// Usage:
//
//	registry := NewRegistry(logger)
//	registry.Register(techSupportAgent)
//	agent, ok := registry.Get("tech-support")
//	writers := registry.ByCapability("writing")
type Registry struct {
	logger logging.Logger

	agents map[string]Agent
	// order preserves registration order for deterministic iteration.
	order []string

	mu sync.RWMutex
}

// NewRegistry creates a new agent registry. A nil logger is replaced with a
// no-op logger.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		logger: logger,
		agents: make(map[string]Agent),
	}
}

// Register adds an agent. Registering the same id twice replaces the prior
// entry in place, keeping its original position.
func (r *Registry) Register(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := agent.ID()
	if _, exists := r.agents[id]; !exists {
		r.order = append(r.order, id)
	}
	r.agents[id] = agent

	r.logger.Info("agent_registered",
		"agent_id", id,
		"agent_name", agent.Name(),
	)
}

// Unregister removes an agent by id. Returns true if the agent existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; !exists {
		return false
	}
	delete(r.agents, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("agent_unregistered", "agent_id", id)
	return true
}

// Get returns the agent for id.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	return agent, ok
}

// Has reports whether an agent is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

// All returns a snapshot of all agents in registration order.
func (r *Registry) All() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.agents[id])
	}
	return result
}

// ByCapability returns all agents with the given skill, in registration
// order. Skill matching is case-insensitive.
func (r *Registry) ByCapability(skill string) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Agent
	for _, id := range r.order {
		agent := r.agents[id]
		if agent.Capabilities().HasSkill(skill) {
			result = append(result, agent)
		}
	}
	return result
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// CountByStatus returns the number of agents per status.
func (r *Registry) CountByStatus() map[Status]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int)
	for _, agent := range r.agents {
		counts[agent.Status()]++
	}
	return counts
}
