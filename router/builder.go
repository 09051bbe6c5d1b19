package router

import (
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/agents"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/pipeline"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/routing"
)

// Builder assembles a Router fluently.
//
// Usage:
//
//	r := router.NewBuilder().
//		WithLogger(logger).
//		Use(pipeline.NewValidationMiddleware()).
//		RegisterAgent(support).
//		AddRule("r1", "support", pred, "support", 10).
//		Build()
//
// Build returns a fresh Router on every call; collaborators accumulated in
// the builder are shared between routers built from the same builder.
type Builder struct {
	logger   logging.Logger
	registry *agents.Registry
	engine   *routing.Engine
	pipe     *pipeline.Pipeline

	pendingAgents []agents.Agent
	pendingRules  []routing.Rule
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger sets the logger used by the router and any collaborators the
// builder creates.
func (b *Builder) WithLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// WithPipeline sets an existing pipeline instead of a fresh one.
func (b *Builder) WithPipeline(pipe *pipeline.Pipeline) *Builder {
	b.pipe = pipe
	return b
}

// WithRuleEngine sets an existing rule engine instead of a fresh one.
func (b *Builder) WithRuleEngine(engine *routing.Engine) *Builder {
	b.engine = engine
	return b
}

// WithRegistry sets an existing agent registry instead of a fresh one.
func (b *Builder) WithRegistry(registry *agents.Registry) *Builder {
	b.registry = registry
	return b
}

// Use appends a middleware to the pipeline.
func (b *Builder) Use(mw pipeline.Middleware) *Builder {
	if b.pipe == nil {
		b.pipe = pipeline.New()
	}
	b.pipe.Use(mw)
	return b
}

// RegisterAgent queues an agent for registration at Build time.
func (b *Builder) RegisterAgent(agent agents.Agent) *Builder {
	b.pendingAgents = append(b.pendingAgents, agent)
	return b
}

// AddRule queues a routing rule for registration at Build time.
func (b *Builder) AddRule(id, name string, pred routing.Predicate, targetAgentID string, priority int) *Builder {
	b.pendingRules = append(b.pendingRules, routing.Rule{
		ID:            id,
		Name:          name,
		Predicate:     pred,
		TargetAgentID: targetAgentID,
		Priority:      priority,
	})
	return b
}

// Build constructs the router, applying queued agents and rules. Missing
// collaborators are created with the builder's logger.
func (b *Builder) Build() *Router {
	logger := b.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if b.registry == nil {
		b.registry = agents.NewRegistry(logger)
	}
	if b.engine == nil {
		b.engine = routing.NewEngine(logger)
	}
	if b.pipe == nil {
		b.pipe = pipeline.New()
	}

	r := New(logger, b.registry, b.engine, b.pipe)
	for _, agent := range b.pendingAgents {
		r.RegisterAgent(agent)
	}
	for _, rule := range b.pendingRules {
		r.AddRoutingRule(rule)
	}
	return r
}
