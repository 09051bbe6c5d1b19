// Package router wires the rule engine, agent registry, and middleware
// pipeline into the message routing entry point.
//
// Features:
//   - Rule-based routing with deterministic tie-breaking
//   - Full middleware pipeline around every agent invocation
//   - Broadcast delivery with per-recipient message clones
//   - Routed / unroutable event subscriptions
//   - Per-rule hit metrics
package router

import (
	"context"
	"sync"
	"time"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/agents"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/observability"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/pipeline"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/routing"
)

// UnroutableHandler is notified when a message cannot be delivered to any
// agent. The reason explains which step failed.
type UnroutableHandler func(msg *message.Message, reason string)

// RoutedHandler is notified after a message was delivered to an agent and a
// result produced. Handlers observe the result; they cannot alter it.
type RoutedHandler func(msg *message.Message, ruleID string, result *message.Result)

// Router routes messages to agents through routing rules and the middleware
// pipeline.
//
// A route call evaluates the rule engine against a read-only context, looks
// up the selected agent, then invokes the pipeline with the agent's Handle
// as terminal handler. Missing rules or agents produce failure results, not
// errors: an undeliverable message is a domain outcome.
type Router struct {
	logger   logging.Logger
	registry *agents.Registry
	engine   *routing.Engine
	pipe     *pipeline.Pipeline

	mu         sync.Mutex
	ruleHits   map[string]int64
	unroutable []UnroutableHandler
	routed     []RoutedHandler
}

// New creates a router. Nil collaborators are replaced with fresh defaults;
// a nil logger with a no-op logger.
func New(logger logging.Logger, registry *agents.Registry, engine *routing.Engine, pipe *pipeline.Pipeline) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	if registry == nil {
		registry = agents.NewRegistry(logger)
	}
	if engine == nil {
		engine = routing.NewEngine(logger)
	}
	if pipe == nil {
		pipe = pipeline.New()
	}
	return &Router{
		logger:   logger,
		registry: registry,
		engine:   engine,
		pipe:     pipe,
		ruleHits: make(map[string]int64),
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// RegisterAgent adds an agent to the registry.
func (r *Router) RegisterAgent(agent agents.Agent) {
	r.registry.Register(agent)
}

// UnregisterAgent removes an agent. Returns true if it existed.
func (r *Router) UnregisterAgent(id string) bool {
	return r.registry.Unregister(id)
}

// GetAgent returns the agent for id.
func (r *Router) GetAgent(id string) (agents.Agent, bool) {
	return r.registry.Get(id)
}

// GetAllAgents returns all registered agents in registration order.
func (r *Router) GetAllAgents() []agents.Agent {
	return r.registry.All()
}

// GetAgentsByCapability returns agents with the given skill.
func (r *Router) GetAgentsByCapability(skill string) []agents.Agent {
	return r.registry.ByCapability(skill)
}

// UseMiddleware appends a middleware to the pipeline. Middleware registered
// first runs outermost.
func (r *Router) UseMiddleware(mw pipeline.Middleware) {
	r.pipe.Use(mw)
}

// AddRoutingRule adds or replaces a routing rule.
func (r *Router) AddRoutingRule(rule routing.Rule) {
	r.engine.AddRule(rule)
}

// RemoveRoutingRule removes a rule by id. Returns true if it existed.
func (r *Router) RemoveRoutingRule(id string) bool {
	return r.engine.RemoveRule(id)
}

// OnUnroutableMessage subscribes to undeliverable-message events.
func (r *Router) OnUnroutableMessage(h UnroutableHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unroutable = append(r.unroutable, h)
}

// OnMessageRouted subscribes to successful-delivery events.
func (r *Router) OnMessageRouted(h RoutedHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routed = append(r.routed, h)
}

// GetRoutingMetrics returns a copy of the per-rule hit counts.
func (r *Router) GetRoutingMetrics() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics := make(map[string]int64, len(r.ruleHits))
	for k, v := range r.ruleHits {
		metrics[k] = v
	}
	return metrics
}

// =============================================================================
// ROUTING
// =============================================================================

// Route delivers the message to the agent selected by the routing rules,
// running the full middleware pipeline around the agent's handler.
//
// When no rule matches, or the selected agent is not registered, Route
// returns a failure result and notifies unroutable subscribers. Errors are
// reserved for faults from the pipeline or agent (including context
// cancellation).
func (r *Router) Route(ctx context.Context, msg *message.Message) (*message.Result, error) {
	start := time.Now()

	routeCtx := routing.NewContext(msg)
	rule, matched := r.engine.Best(routeCtx)
	if !matched {
		routeErr := routing.NewNoAgentError(msg.ID, msg.Category)
		r.logger.Warn("message_unroutable", "message_id", msg.ID, "category", msg.Category)
		r.notifyUnroutable(msg, routeErr.Error())
		observability.RecordRoute("none", "unroutable", int(time.Since(start).Milliseconds()))
		return message.Fail(routeErr.Error()), nil
	}

	agent, ok := r.registry.Get(rule.TargetAgentID)
	if !ok {
		routeErr := routing.NewAgentNotRegisteredError(rule.TargetAgentID, rule.ID)
		r.logger.Warn("agent_not_registered",
			"message_id", msg.ID,
			"rule_id", rule.ID,
			"agent_id", rule.TargetAgentID)
		r.notifyUnroutable(msg, routeErr.Error())
		observability.RecordRoute(rule.Name, "unroutable", int(time.Since(start).Milliseconds()))
		return message.Fail(routeErr.Error()), nil
	}

	msg.ReceiverID = agent.ID()

	handler := r.pipe.Build(agent.Handle)
	result, err := handler(ctx, msg)

	r.recordRuleHit(rule.ID)
	status := routeStatus(result, err)
	observability.RecordRoute(rule.Name, status, int(time.Since(start).Milliseconds()))
	observability.RecordAgentHandled(agent.ID(), status)

	if err != nil {
		return nil, err
	}

	r.notifyRouted(msg, rule.ID, result)
	return result, nil
}

// Broadcast delivers an independent clone of the message to every registered
// agent accepted by the filter (a nil filter accepts all). Each clone runs
// the full pipeline. The returned map is keyed by agent id; an agent whose
// handler returned an error maps to a failure result carrying the error
// text.
func (r *Router) Broadcast(ctx context.Context, msg *message.Message, filter func(agents.Agent) bool) map[string]*message.Result {
	results := make(map[string]*message.Result)

	for _, agent := range r.registry.All() {
		if filter != nil && !filter(agent) {
			continue
		}

		clone := msg.Clone()
		clone.ReceiverID = agent.ID()

		handler := r.pipe.Build(agent.Handle)
		result, err := handler(ctx, clone)
		if err != nil {
			result = message.Fail(err.Error())
		}
		results[agent.ID()] = result
		observability.RecordAgentHandled(agent.ID(), routeStatus(result, err))
	}

	return results
}

func (r *Router) recordRuleHit(ruleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ruleHits[ruleID]++
}

// notifyUnroutable invokes unroutable subscribers. Subscriber panics are
// logged and contained.
func (r *Router) notifyUnroutable(msg *message.Message, reason string) {
	r.mu.Lock()
	handlers := make([]UnroutableHandler, len(r.unroutable))
	copy(handlers, r.unroutable)
	r.mu.Unlock()

	for _, h := range handlers {
		r.invokeSafely(func() { h(msg, reason) }, "unroutable_subscriber_panic")
	}
}

// notifyRouted invokes routed subscribers. Subscriber panics are logged and
// contained; subscribers never alter the result.
func (r *Router) notifyRouted(msg *message.Message, ruleID string, result *message.Result) {
	r.mu.Lock()
	handlers := make([]RoutedHandler, len(r.routed))
	copy(handlers, r.routed)
	r.mu.Unlock()

	for _, h := range handlers {
		r.invokeSafely(func() { h(msg, ruleID, result) }, "routed_subscriber_panic")
	}
}

func (r *Router) invokeSafely(fn func(), event string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(event, "panic", rec)
		}
	}()
	fn()
}

func routeStatus(result *message.Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case result != nil && result.Success:
		return "success"
	default:
		return "failure"
	}
}
