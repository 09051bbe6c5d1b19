package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// HealthProbe reports whether an agent is currently able to take traffic.
// A probe that returns an error or panics marks the agent unhealthy.
type HealthProbe func(ctx context.Context) error

type monitoredAgent struct {
	id      string
	probe   HealthProbe
	healthy bool
}

// HealthCheckMiddleware reroutes messages away from unhealthy agents.
//
// Agents are probed in the background on a fixed interval. When a message
// targets an unhealthy agent, the receiver is rewritten to the first healthy
// agent in registration order. If no agent is healthy the message is
// rejected without reaching downstream.
type HealthCheckMiddleware struct {
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	agents []*monitoredAgent
	index  map[string]*monitoredAgent

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewHealthCheckMiddleware creates the middleware and starts the probe loop.
func NewHealthCheckMiddleware(interval time.Duration, logger logging.Logger) *HealthCheckMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &HealthCheckMiddleware{
		interval: interval,
		logger:   logger,
		index:    make(map[string]*monitoredAgent),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.probeLoop()
	return m
}

// RegisterAgent adds an agent to the health registry. Agents start healthy
// until the first probe says otherwise. Re-registering an id replaces its
// probe in place, keeping registration order.
func (m *HealthCheckMiddleware) RegisterAgent(agentID string, probe HealthProbe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.index[agentID]; ok {
		existing.probe = probe
		return
	}
	agent := &monitoredAgent{id: agentID, probe: probe, healthy: true}
	m.agents = append(m.agents, agent)
	m.index[agentID] = agent
}

// SetHealthy overrides an agent's health state. Intended for tests and
// manual intervention; the next probe cycle may flip it back.
func (m *HealthCheckMiddleware) SetHealthy(agentID string, healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agent, ok := m.index[agentID]; ok {
		agent.healthy = healthy
	}
}

// GetHealthStatus returns a copy of the current health map.
func (m *HealthCheckMiddleware) GetHealthStatus() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := make(map[string]bool, len(m.agents))
	for _, agent := range m.agents {
		status[agent.id] = agent.healthy
	}
	return status
}

// Process implements the Middleware interface.
func (m *HealthCheckMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	m.mu.Lock()
	agent, monitored := m.index[msg.ReceiverID]
	needsReroute := monitored && !agent.healthy
	var fallback string
	if needsReroute {
		for _, candidate := range m.agents {
			if candidate.healthy {
				fallback = candidate.id
				break
			}
		}
	}
	m.mu.Unlock()

	if needsReroute {
		if fallback == "" {
			return message.Fail("No healthy agents available"), nil
		}
		m.logger.Warn("message_rerouted",
			"message_id", msg.ID,
			"from", msg.ReceiverID,
			"to", fallback)
		msg.ReceiverID = fallback
	}

	return next(ctx, msg)
}

// Close stops the probe loop. Safe to call more than once.
func (m *HealthCheckMiddleware) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
	return nil
}

func (m *HealthCheckMiddleware) probeLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.probeAll()
		}
	}
}

func (m *HealthCheckMiddleware) probeAll() {
	m.mu.Lock()
	agents := make([]*monitoredAgent, len(m.agents))
	copy(agents, m.agents)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	for _, agent := range agents {
		healthy := m.runProbe(ctx, agent)
		m.mu.Lock()
		wasHealthy := agent.healthy
		agent.healthy = healthy
		m.mu.Unlock()
		if wasHealthy != healthy {
			m.logger.Info("agent_health_changed", "agent_id", agent.id, "healthy", healthy)
		}
	}
}

func (m *HealthCheckMiddleware) runProbe(ctx context.Context, agent *monitoredAgent) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("health_probe_panic", "agent_id", agent.id, "panic", r)
			healthy = false
		}
	}()
	if agent.probe == nil {
		return true
	}
	return agent.probe(ctx) == nil
}

var _ Middleware = (*HealthCheckMiddleware)(nil)
